package api

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	maxNameLen     = 64
	maxPasswordLen = 128
	maxAge         = 200
)

var (
	nameRules     = []validation.Rule{validation.Required, validation.Length(1, maxNameLen)}
	passwordRules = []validation.Rule{validation.Required, validation.Length(1, maxPasswordLen)}
	emailRules    = []validation.Rule{validation.NilOrNotEmpty, is.Email}
	phoneRules    = []validation.Rule{validation.NilOrNotEmpty, validation.Length(1, 32)}
	ageRules      = []validation.Rule{validation.Min(0), validation.Max(maxAge)}
)

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, nameRules...),
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.Email, emailRules...),
		validation.Field(&r.Phone, phoneRules...),
		validation.Field(&r.Age, ageRules...),
	)
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Account, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// Validate checks the fields present in the request; absent ones are skipped.
func (r UpdateProfileRequest) Validate() error {
	errs := validation.Errors{
		"original_password": validation.Validate(r.OriginalPassword, validation.Required),
	}
	if v, ok := r.Name.Get(); ok {
		errs["name"] = validation.Validate(v, nameRules...)
	}
	if v, ok := r.Email.Get(); ok {
		errs["email"] = validation.Validate(v, emailRules...)
	}
	if v, ok := r.Phone.Get(); ok {
		errs["phone"] = validation.Validate(v, phoneRules...)
	}
	if v, ok := r.Age.Get(); ok {
		errs["age"] = validation.Validate(v, ageRules...)
	}
	if v, ok := r.Password.Get(); ok {
		errs["password"] = validation.Validate(v, passwordRules...)
	}
	return errs.Filter()
}

func (r DeleteAccountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required),
	)
}

func (r GetUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UID, validation.Required, is.Digit),
	)
}
