package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oreo-app/oreo/internal/platform/httpx"
)

// SQLRepository provides PostgreSQL backed persistence for users.
type SQLRepository struct {
	pool *pgxpool.Pool
}

// NewSQLRepository constructs a repository.
func NewSQLRepository(pool *pgxpool.Pool) *SQLRepository {
	return &SQLRepository{pool: pool}
}

// FindByEmail returns the user with the given email.
func (r *SQLRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE email = $1`,
		email)
	return scanUser(row)
}

// FindByID returns the user with the given ID.
func (r *SQLRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE id = $1`,
		id)
	return scanUser(row)
}

// Insert persists a new user and fills in the generated ID and timestamps.
func (r *SQLRepository) Insert(ctx context.Context, user *User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, now(), now())
		 RETURNING id, created_at, updated_at`,
		user.Email, user.Name, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return translateError(err)
}

// Update persists the mutable fields of an existing user.
func (r *SQLRepository) Update(ctx context.Context, user *User) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET email = $2, name = $3, password_hash = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		user.ID, user.Email, user.Name, user.PasswordHash,
	).Scan(&user.UpdatedAt)
	return translateError(err)
}

func scanUser(row pgx.Row) (*User, error) {
	var user User
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// translateError maps driver errors onto the domain taxonomy. 23505 is the
// Postgres unique-violation class; the only unique constraint here is the
// login email.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return httpx.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return httpx.E(httpx.ErrConflict, "Email already exists")
	}
	return err
}
