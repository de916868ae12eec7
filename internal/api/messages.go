// Package api defines the wire contract of the account service: the gRPC
// service descriptor, the JSON request and response messages, their input
// validation, and a typed client.
package api

import (
	"github.com/dmitrijs2005/accounts/internal/optional"
)

type RegisterRequest struct {
	Name     string  `json:"name"`
	Password string  `json:"password"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Gender   *bool   `json:"gender,omitempty"`
	Age      *int    `json:"age,omitempty"`
}

// LoginRequest identifies the account by name, email or phone.
type LoginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type RefreshRequest struct{}

// UpdateProfileRequest changes only the fields present in the message. A
// field sent as null is cleared.
type UpdateProfileRequest struct {
	OriginalPassword string                  `json:"original_password"`
	Name             optional.Value[string]  `json:"name,omitzero"`
	Email            optional.Value[*string] `json:"email,omitzero"`
	Phone            optional.Value[*string] `json:"phone,omitzero"`
	Gender           optional.Value[*bool]   `json:"gender,omitzero"`
	Age              optional.Value[*int]    `json:"age,omitzero"`
	Password         optional.Value[string]  `json:"password,omitzero"`
}

type DeleteAccountRequest struct {
	Password string `json:"password"`
}

type DeleteAccountResponse struct{}

type GetUserRequest struct {
	UID string `json:"uid"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserView is the public profile of an account. Ids are sent as strings so
// clients without 64-bit integers keep them intact.
type UserView struct {
	UID    uint64  `json:"uid,string"`
	Name   string  `json:"name"`
	Email  *string `json:"email"`
	Phone  *string `json:"phone"`
	Gender *bool   `json:"gender"`
	Age    *int    `json:"age"`
}
