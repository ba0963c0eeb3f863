package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oakline/storefront/internal/apperr"
	"github.com/oakline/storefront/internal/cart/entity"
)

// CartRepo persists carts as whole objects: Save replaces the full line set
// inside one transaction. The read-modify-write shape is deliberately kept
// behind this type so a per-line atomic upsert can replace it without
// touching the cart service contract.
type CartRepo struct {
	db *sqlx.DB
}

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// EnsureTable creates the carts tables if not exists (idempotent).
func (r *CartRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS cart_items (
  cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id BIGINT NOT NULL,
  quantity NUMERIC(12,2) NOT NULL CHECK (quantity > 0),
  PRIMARY KEY (cart_id, product_id)
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Load returns the user's cart with its lines, or sql.ErrNoRows when the
// user has no cart yet.
func (r *CartRepo) Load(ctx context.Context, userID string) (*entity.Cart, error) {
	var c entity.Cart
	if err := r.db.GetContext(ctx, &c, `SELECT id, user_id FROM carts WHERE user_id=$1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "could not load cart")
	}
	c.Items = []entity.CartLine{}
	const q = `SELECT product_id, quantity FROM cart_items WHERE cart_id=$1 ORDER BY product_id`
	if err := r.db.SelectContext(ctx, &c.Items, q, c.ID); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "could not load cart items")
	}
	return &c, nil
}

// Save upserts the cart row and replaces its full line set in one
// transaction.
func (r *CartRepo) Save(ctx context.Context, c *entity.Cart) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "could not save cart")
	}
	if err := saveCartTx(ctx, tx, c); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return apperr.Wrap(fmt.Errorf("%w; rollback: %v", err, rbErr), apperr.KindInternal, "could not save cart")
		}
		return apperr.Wrap(err, apperr.KindInternal, "could not save cart")
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "could not save cart")
	}
	return nil
}

func saveCartTx(ctx context.Context, tx *sqlx.Tx, c *entity.Cart) error {
	const upsert = `INSERT INTO carts (id, user_id) VALUES ($1, $2)
	                ON CONFLICT (user_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, upsert, c.ID, c.UserID); err != nil {
		return err
	}
	// the cart may pre-exist under a different id; resolve the stored one
	if err := tx.GetContext(ctx, &c.ID, `SELECT id FROM carts WHERE user_id=$1`, c.UserID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, c.ID); err != nil {
		return err
	}
	const insert = `INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3)`
	for _, line := range c.Items {
		if _, err := tx.ExecContext(ctx, insert, c.ID, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Clear deletes all lines of the user's cart; no-op when no cart exists.
func (r *CartRepo) Clear(ctx context.Context, userID string) error {
	const q = `DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE user_id=$1)`
	if _, err := r.db.ExecContext(ctx, q, userID); err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "could not clear cart")
	}
	return nil
}
