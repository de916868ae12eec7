// Package common defines shared constants, helpers, and the sentinel errors
// used across the client and server layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Account errors.
	ErrAuthFailed     = errors.New("authorize failed")
	ErrWrongPassword  = errors.New("your password is wrong")
	ErrUpdateConflict = errors.New("some fields are conflict with others")

	// Auth errors (malformed, unsigned, expired or invalidated token).
	ErrInvalidToken = errors.New("invalid authentication credentials")

	// Input errors.
	ErrValidation = errors.New("validation error")

	// Generic/internal flow control.
	ErrInternal = errors.New("internal error")
)
