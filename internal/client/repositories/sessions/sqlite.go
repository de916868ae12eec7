package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accounts/internal/client/models"
	"github.com/dmitrijs2005/accounts/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, server string) (*models.Session, error) {
	s := &models.Session{}
	var savedAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT server, account, token, saved_at FROM sessions WHERE server = ?`, server).
		Scan(&s.Server, &s.Account, &s.Token, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session[%s]: %w", server, err)
	}
	s.SavedAt = time.UnixMilli(savedAt).UTC()
	return s, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, s *models.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (server, account, token, saved_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(server) DO UPDATE SET
			account = excluded.account,
			token = excluded.token,
			saved_at = excluded.saved_at
	`, s.Server, s.Account, s.Token, s.SavedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save session[%s]: %w", s.Server, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, server string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE server = ?`, server)
	if err != nil {
		return fmt.Errorf("failed to delete session[%s]: %w", server, err)
	}
	return nil
}
