package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T, monitorPings bool) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(monitorPings))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func stubOpen(t *testing.T, db *sql.DB) {
	t.Helper()
	orig := sqlOpen
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		if driver != "pgx" {
			return nil, errors.New("unexpected driver " + driver)
		}
		return db, nil
	}
	t.Cleanup(func() { sqlOpen = orig })
}

func TestOpen_Memory(t *testing.T) {
	m, err := Open(context.Background(), "memory://", logging.Nop{}, OpenOptions{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryRepositoryManager{}, m)
	assert.NoError(t, m.RunMigrations(context.Background()))
	assert.NoError(t, m.Ping(context.Background()))
	assert.NoError(t, m.Close())
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "", logging.Nop{}, OpenOptions{})
	assert.Error(t, err)
}

func TestOpen_RetriesPing(t *testing.T) {
	db, mock := newDB(t, true)
	stubOpen(t, db)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing()

	m, err := Open(context.Background(), "postgres://x", logging.Nop{}, OpenOptions{PingRetries: 3, PingBackoff: time.Millisecond})
	require.NoError(t, err)
	assert.IsType(t, &PostgresRepositoryManager{}, m)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_GivesUp(t *testing.T) {
	db, mock := newDB(t, true)
	stubOpen(t, db)

	for i := 0; i < 3; i++ {
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	}
	mock.ExpectClose()

	_, err := Open(context.Background(), "postgres://x", logging.Nop{}, OpenOptions{PingRetries: 2, PingBackoff: time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPostgresManager_WithinTxCommits(t *testing.T) {
	db, mock := newDB(t, false)
	m := NewPostgresRepositoryManager(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM users`).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := m.WithinTx(context.Background(), func(ctx context.Context, repo users.Repository) error {
		return repo.Delete(ctx, 1)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresManager_WithinTxRollsBack(t *testing.T) {
	db, mock := newDB(t, false)
	m := NewPostgresRepositoryManager(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := m.WithinTx(context.Background(), func(ctx context.Context, repo users.Repository) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t, false)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t, false)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(context.Background()); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestMemoryManager_SharesRepository(t *testing.T) {
	m := NewMemoryRepositoryManager()
	ctx := context.Background()

	err := m.WithinTx(ctx, func(ctx context.Context, repo users.Repository) error {
		return repo.Create(ctx, &models.User{ID: 1, Name: "alice"})
	})
	require.NoError(t, err)

	got, err := m.Users().FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
}
