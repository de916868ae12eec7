package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id, name, email, phone, gender, age, password_hash, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, u *models.User) error {
	query :=
		`INSERT INTO users (id, name, email, phone, gender, age, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		int64(u.ID), u.Name, u.Email, u.Phone, u.Gender, u.Age, u.PasswordHash,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (r *PostgresRepository) FindOne(ctx context.Context, l Lookup) (*models.User, error) {
	if l.IsEmpty() {
		return nil, common.ErrNotFound
	}

	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE (name = $1 OR email = $2 OR phone = $3) AND id <> $4
		 ORDER BY id
		 LIMIT 1`

	row := r.db.QueryRowContext(ctx, query,
		nullIfEmpty(l.Name), nullIfEmpty(l.Email), nullIfEmpty(l.Phone), int64(l.ExcludeID))
	return scanUser(row)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, int64(id)))
}

// Update writes only the columns set in p and returns the updated record.
func (r *PostgresRepository) Update(ctx context.Context, id uint64, p models.UserPatch) (*models.User, error) {
	if p.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}

	if v, ok := p.Name.Get(); ok {
		set("name", v)
	}
	if v, ok := p.Email.Get(); ok {
		set("email", v)
	}
	if v, ok := p.Phone.Get(); ok {
		set("phone", v)
	}
	if v, ok := p.Gender.Get(); ok {
		set("gender", v)
	}
	if v, ok := p.Age.Get(); ok {
		set("age", v)
	}
	if v, ok := p.PasswordHash.Get(); ok {
		set("password_hash", v)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, int64(id))

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	return scanUser(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresRepository) SwapPasswordHash(ctx context.Context, id uint64, old, next []byte) error {
	query :=
		`UPDATE users SET password_hash = $1, updated_at = NOW()
		 WHERE id = $2 AND password_hash = $3`

	res, err := r.db.ExecContext(ctx, query, next, int64(id), old)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: password hash changed or account removed", common.ErrUpdateConflict)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, int64(id))
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		id     int64
		email  sql.NullString
		phone  sql.NullString
		gender sql.NullBool
		age    sql.NullInt64
		u      models.User
	)
	err := row.Scan(&id, &u.Name, &email, &phone, &gender, &age, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}

	u.ID = uint64(id)
	if email.Valid {
		u.Email = &email.String
	}
	if phone.Valid {
		u.Phone = &phone.String
	}
	if gender.Valid {
		u.Gender = &gender.Bool
	}
	if age.Valid {
		a := int(age.Int64)
		u.Age = &a
	}
	return &u, nil
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: %s", common.ErrAlreadyExists, pgErr.ConstraintName)
	}
	return fmt.Errorf("db error: %w: %w", common.ErrStoreUnavailable, err)
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
