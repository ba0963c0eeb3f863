package entity

import "github.com/shopspring/decimal"

// Product is a catalog row. The commerce core treats products as read-only
// except for existence and price lookups; mutations are admin operations.
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description,omitempty"`
	Price       decimal.Decimal `db:"price" json:"price"`
	ImageURL    string          `db:"image_url" json:"image_url,omitempty"`
	IsFeatured  bool            `db:"is_featured" json:"is_featured"`
}
