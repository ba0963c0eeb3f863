package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/oakline/storefront/internal/apperr"
	"github.com/oakline/storefront/internal/identity/entity"
)

const uniqueViolation = "23505"

// UserRepo provides data access for the users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// EnsureTable creates the users table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
// The unique index on email is the correctness guarantee against duplicate
// registration; the service-level existence check is only a fast path.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE EXTENSION IF NOT EXISTS citext;
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL,
  email CITEXT NOT NULL UNIQUE,
  password_hash BYTEA NOT NULL,
  salt TEXT NOT NULL,
  password_algo TEXT NOT NULL DEFAULT 'argon2id',
  role TEXT NOT NULL DEFAULT 'User',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a new user row. A duplicate email surfaces as a conflict.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, username, email, password_hash, salt, password_algo, role, created_at)
	           VALUES (:id, :username, :email, :password_hash, :salt, :password_algo, :role, :created_at)`
	_, err := r.db.NamedExecContext(ctx, q, u)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperr.Wrap(err, apperr.KindConflict, "user already exists")
		}
		return apperr.Wrap(err, apperr.KindInternal, "could not create user")
	}
	return nil
}

// GetByEmail returns the user matched by email (case-insensitive via citext)
// or sql.ErrNoRows.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	const q = `SELECT id, username, email, password_hash, salt, password_algo, role, created_at
	           FROM users WHERE email=$1`
	var row entity.User
	if err := r.db.GetContext(ctx, &row, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "could not load user")
	}
	return &row, nil
}
