package client

import "errors"

var (
	ErrUnavailable   = errors.New("server unavailable")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrWrongPassword = errors.New("wrong password")
	ErrConflict      = errors.New("name, email or phone already in use")
	ErrNotFound      = errors.New("user not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrNoSession     = errors.New("not logged in")
)
