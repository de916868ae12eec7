// Package sessions persists the client's tokens, one per server address.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/accounts/internal/client/models"
)

type Repository interface {
	// Get returns nil and no error when no session is stored for server.
	Get(ctx context.Context, server string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, server string) error
}
