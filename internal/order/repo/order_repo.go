package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oakline/storefront/internal/apperr"
	"github.com/oakline/storefront/internal/order/entity"
)

// OrderRepo provides data access for orders and their lines. An order and
// its lines are written in one transaction: neither exists without the other.
type OrderRepo struct {
	db *sqlx.DB
}

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// EnsureTable creates the order tables if not exists (idempotent).
func (r *OrderRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS orders (
  id BIGINT PRIMARY KEY,
  user_id TEXT NOT NULL,
  order_date TIMESTAMPTZ NOT NULL,
  street TEXT NOT NULL,
  city TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  country TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);
CREATE TABLE IF NOT EXISTS order_items (
  order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id BIGINT NOT NULL,
  quantity NUMERIC(12,2) NOT NULL,
  price_at_purchase NUMERIC(12,2) NOT NULL,
  PRIMARY KEY (order_id, product_id)
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Save persists the order and all its lines as a single unit.
func (r *OrderRepo) Save(ctx context.Context, o *entity.Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "could not save order")
	}
	if err := saveOrderTx(ctx, tx, o); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return apperr.Wrap(fmt.Errorf("%w; rollback: %v", err, rbErr), apperr.KindInternal, "could not save order")
		}
		return apperr.Wrap(err, apperr.KindInternal, "could not save order")
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "could not save order")
	}
	return nil
}

func saveOrderTx(ctx context.Context, tx *sqlx.Tx, o *entity.Order) error {
	const insertOrder = `INSERT INTO orders (id, user_id, order_date, street, city, postal_code, country)
	                     VALUES (:id, :user_id, :order_date, :street, :city, :postal_code, :country)`
	if _, err := tx.NamedExecContext(ctx, insertOrder, o); err != nil {
		return err
	}
	const insertLine = `INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
	                    VALUES ($1, $2, $3, $4)`
	for _, line := range o.Items {
		if _, err := tx.ExecContext(ctx, insertLine, o.ID, line.ProductID, line.Quantity, line.PriceAtPurchase); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the order scoped to its owning user, with lines, or
// sql.ErrNoRows.
func (r *OrderRepo) Find(ctx context.Context, id int64, userID string) (*entity.Order, error) {
	const q = `SELECT id, user_id, order_date, street, city, postal_code, country
	           FROM orders WHERE id=$1 AND user_id=$2`
	var o entity.Order
	if err := r.db.GetContext(ctx, &o, q, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "could not load order")
	}
	o.Items = []entity.OrderLine{}
	const lines = `SELECT product_id, quantity, price_at_purchase FROM order_items WHERE order_id=$1 ORDER BY product_id`
	if err := r.db.SelectContext(ctx, &o.Items, lines, o.ID); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "could not load order items")
	}
	return &o, nil
}

// List returns all orders of a user, newest first, each with its lines.
func (r *OrderRepo) List(ctx context.Context, userID string) ([]entity.Order, error) {
	const q = `SELECT id, user_id, order_date, street, city, postal_code, country
	           FROM orders WHERE user_id=$1 ORDER BY order_date DESC, id DESC`
	orders := []entity.Order{}
	if err := r.db.SelectContext(ctx, &orders, q, userID); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "could not list orders")
	}
	if len(orders) == 0 {
		return orders, nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int64]*entity.Order, len(orders))
	for i := range orders {
		orders[i].Items = []entity.OrderLine{}
		ids[i] = orders[i].ID
		index[orders[i].ID] = &orders[i]
	}
	query, args, err := sqlx.In(`SELECT order_id, product_id, quantity, price_at_purchase FROM order_items WHERE order_id IN (?) ORDER BY order_id, product_id`, ids)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "could not list order items")
	}
	rows := []struct {
		OrderID int64 `db:"order_id"`
		entity.OrderLine
	}{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "could not list order items")
	}
	for _, row := range rows {
		o := index[row.OrderID]
		o.Items = append(o.Items, row.OrderLine)
	}
	return orders, nil
}

// UpdateShipping corrects the shipping fields of an existing order. Lines
// are immutable and are not touched.
func (r *OrderRepo) UpdateShipping(ctx context.Context, o *entity.Order) error {
	const q = `UPDATE orders SET street=:street, city=:city, postal_code=:postal_code, country=:country
	           WHERE id=:id AND user_id=:user_id`
	if _, err := r.db.NamedExecContext(ctx, q, o); err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "could not update order")
	}
	return nil
}

// Delete removes the order; lines go with it via ON DELETE CASCADE.
func (r *OrderRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id=$1`, id); err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "could not delete order")
	}
	return nil
}
