// Package repomanager opens the configured account store and vends its
// repositories. A DSN of the form memory:// selects the in-memory store;
// anything else is handed to the pgx driver.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/users"
	"github.com/sethvargo/go-retry"
)

// MemoryDSN selects the in-memory store.
const MemoryDSN = "memory://"

// RepositoryManager gives access to the user repository, optionally scoped to
// a transaction.
type RepositoryManager interface {
	Users() users.Repository

	// WithinTx runs fn against a repository whose reads and writes share one
	// transaction. The transaction commits iff fn returns nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error

	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// OpenOptions tune Open. The zero value is usable.
type OpenOptions struct {
	PingRetries uint64
	PingBackoff time.Duration
}

var sqlOpen = sql.Open

// Open returns a manager for dsn. For PostgreSQL the connection is pinged
// with exponential backoff before Open returns.
func Open(ctx context.Context, dsn string, log logging.Logger, opts OpenOptions) (RepositoryManager, error) {
	if strings.HasPrefix(dsn, MemoryDSN) {
		log.Warn(ctx, "using in-memory account store; data is lost on restart")
		return NewMemoryRepositoryManager(), nil
	}
	if dsn == "" {
		return nil, fmt.Errorf("empty database DSN")
	}

	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if opts.PingRetries == 0 {
		opts.PingRetries = 5
	}
	if opts.PingBackoff <= 0 {
		opts.PingBackoff = 200 * time.Millisecond
	}

	b := retry.WithMaxRetries(opts.PingRetries, retry.NewExponential(opts.PingBackoff))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			log.Warn(ctx, "database not reachable yet", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return NewPostgresRepositoryManager(db), nil
}
