// Package users contains the account store: the Repository contract and its
// PostgreSQL and in-memory implementations.
package users

import (
	"context"

	"github.com/dmitrijs2005/accounts/internal/server/models"
)

// Lookup matches a record whose name OR email OR phone equals the
// corresponding non-empty field. ExcludeID, when non-zero, skips that record
// (used for "conflicts with someone else" checks on update). When several
// records match, the one with the lowest id wins.
type Lookup struct {
	Name      string
	Email     string
	Phone     string
	ExcludeID uint64
}

// IsEmpty reports whether the lookup can match nothing.
func (l Lookup) IsEmpty() bool {
	return l.Name == "" && l.Email == "" && l.Phone == ""
}

// Repository persists user records. Name, email and phone are unique across
// records; Create and Update return common.ErrAlreadyExists on collision.
// Missing records yield common.ErrNotFound, and connectivity failures wrap
// common.ErrStoreUnavailable.
//
// SwapPasswordHash replaces the stored hash only while it still equals old,
// and returns common.ErrUpdateConflict otherwise.
type Repository interface {
	Create(ctx context.Context, u *models.User) error
	FindOne(ctx context.Context, l Lookup) (*models.User, error)
	FindByID(ctx context.Context, id uint64) (*models.User, error)
	Update(ctx context.Context, id uint64, p models.UserPatch) (*models.User, error)
	SwapPasswordHash(ctx context.Context, id uint64, old, next []byte) error
	Delete(ctx context.Context, id uint64) error
}
