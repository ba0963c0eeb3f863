package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/oakline/storefront/internal/apperr"
	"github.com/oakline/storefront/internal/catalog/entity"
)

// ProductRepo provides data access for the products table using sqlx.
type ProductRepo struct {
	db *sqlx.DB
}

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// EnsureTable creates the products table if not exists (idempotent).
func (r *ProductRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS products (
  id BIGINT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
  image_url TEXT NOT NULL DEFAULT '',
  is_featured BOOLEAN NOT NULL DEFAULT false
);
CREATE INDEX IF NOT EXISTS idx_products_featured ON products(is_featured) WHERE is_featured;
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	const q = `INSERT INTO products (id, name, description, price, image_url, is_featured)
	           VALUES (:id, :name, :description, :price, :image_url, :is_featured)`
	if _, err := r.db.NamedExecContext(ctx, q, p); err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "could not create product")
	}
	return nil
}

// GetByID returns the product or sql.ErrNoRows when absent.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	const q = `SELECT id, name, description, price, image_url, is_featured FROM products WHERE id=$1`
	var row entity.Product
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "could not load product")
	}
	return &row, nil
}

func (r *ProductRepo) List(ctx context.Context) ([]entity.Product, error) {
	const q = `SELECT id, name, description, price, image_url, is_featured FROM products ORDER BY id`
	products := []entity.Product{}
	if err := r.db.SelectContext(ctx, &products, q); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "could not list products")
	}
	return products, nil
}

func (r *ProductRepo) ListFeatured(ctx context.Context) ([]entity.Product, error) {
	const q = `SELECT id, name, description, price, image_url, is_featured FROM products WHERE is_featured ORDER BY id`
	products := []entity.Product{}
	if err := r.db.SelectContext(ctx, &products, q); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "could not list featured products")
	}
	return products, nil
}

func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	const q = `UPDATE products SET name=:name, description=:description, price=:price,
	           image_url=:image_url, is_featured=:is_featured WHERE id=:id`
	if _, err := r.db.NamedExecContext(ctx, q, p); err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "could not update product")
	}
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=$1`, id); err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "could not delete product")
	}
	return nil
}
