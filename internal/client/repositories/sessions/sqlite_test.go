package sessions

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/accounts/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*SQLiteRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteRepository(db), mock
}

func TestGet(t *testing.T) {
	r, mock := newMock(t)
	saved := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT server, account, token, saved_at FROM sessions WHERE server = ?`)).
		WithArgs("srv").
		WillReturnRows(sqlmock.NewRows([]string{"server", "account", "token", "saved_at"}).
			AddRow("srv", "alice", "tok", saved.UnixMilli()))

	s, err := r.Get(context.Background(), "srv")
	require.NoError(t, err)
	assert.Equal(t, &models.Session{Server: "srv", Account: "alice", Token: "tok", SavedAt: saved}, s)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_None(t *testing.T) {
	r, mock := newMock(t)

	mock.ExpectQuery(`SELECT .* FROM sessions`).
		WithArgs("srv").
		WillReturnRows(sqlmock.NewRows([]string{"server", "account", "token", "saved_at"}))

	s, err := r.Get(context.Background(), "srv")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestGet_Error(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(`SELECT .* FROM sessions`).WillReturnError(errors.New("disk"))

	_, err := r.Get(context.Background(), "srv")
	assert.ErrorContains(t, err, "failed to get session[srv]")
}

func TestSave(t *testing.T) {
	r, mock := newMock(t)
	saved := time.UnixMilli(1700000000123)

	mock.ExpectExec(`INSERT INTO sessions .* ON CONFLICT\(server\) DO UPDATE`).
		WithArgs("srv", "alice", "tok", saved.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, r.Save(context.Background(), &models.Session{Server: "srv", Account: "alice", Token: "tok", SavedAt: saved}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_Error(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO sessions`).WillReturnError(errors.New("readonly"))

	err := r.Save(context.Background(), &models.Session{Server: "srv"})
	assert.ErrorContains(t, err, "failed to save session[srv]")
}

func TestDelete(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE server = ?`)).
		WithArgs("srv").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Delete(context.Background(), "srv"))

	mock.ExpectExec(`DELETE FROM sessions`).WillReturnError(errors.New("locked"))
	assert.ErrorContains(t, r.Delete(context.Background(), "srv"), "failed to delete session[srv]")
}
