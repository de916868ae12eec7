// Package models contains the persisted user record and the views and
// patches derived from it.
package models

import (
	"time"

	"github.com/dmitrijs2005/accounts/internal/optional"
)

// User is the persisted account record. PasswordHash never leaves the
// server; use View for anything outward facing.
type User struct {
	ID           uint64
	Name         string
	Email        *string
	Phone        *string
	Gender       *bool // true = female, false = male, nil = unspecified
	Age          *int
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicView is the part of a User that may be shown to the user and embedded
// into session tokens.
type PublicView struct {
	ID     uint64
	Name   string
	Email  *string
	Phone  *string
	Gender *bool
	Age    *int
}

// View returns the public projection of u.
func (u *User) View() PublicView {
	return PublicView{
		ID:     u.ID,
		Name:   u.Name,
		Email:  cloneP(u.Email),
		Phone:  cloneP(u.Phone),
		Gender: cloneP(u.Gender),
		Age:    cloneP(u.Age),
	}
}

// UserPatch lists the columns to change. Unset fields are left untouched;
// a set pointer field holding nil clears the column.
type UserPatch struct {
	Name         optional.Value[string]
	Email        optional.Value[*string]
	Phone        optional.Value[*string]
	Gender       optional.Value[*bool]
	Age          optional.Value[*int]
	PasswordHash optional.Value[[]byte]
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return !p.Name.IsSet() && !p.Email.IsSet() && !p.Phone.IsSet() &&
		!p.Gender.IsSet() && !p.Age.IsSet() && !p.PasswordHash.IsSet()
}

// Apply writes the set fields of p into u.
func (p UserPatch) Apply(u *User) {
	if v, ok := p.Name.Get(); ok {
		u.Name = v
	}
	if v, ok := p.Email.Get(); ok {
		u.Email = cloneP(v)
	}
	if v, ok := p.Phone.Get(); ok {
		u.Phone = cloneP(v)
	}
	if v, ok := p.Gender.Get(); ok {
		u.Gender = cloneP(v)
	}
	if v, ok := p.Age.Get(); ok {
		u.Age = cloneP(v)
	}
	if v, ok := p.PasswordHash.Get(); ok {
		u.PasswordHash = append([]byte(nil), v...)
	}
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	c := *u
	c.Email = cloneP(u.Email)
	c.Phone = cloneP(u.Phone)
	c.Gender = cloneP(u.Gender)
	c.Age = cloneP(u.Age)
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return &c
}

func cloneP[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
