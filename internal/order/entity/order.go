package entity

import (
	"time"

	"github.com/shopspring/decimal"

	catalogentity "github.com/oakline/storefront/internal/catalog/entity"
)

// OrderLine freezes one cart line at checkout. PriceAtPurchase is a copy of
// the product price taken at order time, not a live reference; Product is a
// read-only display hydration and never affects the frozen price.
type OrderLine struct {
	ProductID       int64                  `db:"product_id" json:"product_id"`
	Quantity        decimal.Decimal        `db:"quantity" json:"quantity"`
	PriceAtPurchase decimal.Decimal        `db:"price_at_purchase" json:"price_at_purchase"`
	Product         *catalogentity.Product `json:"product,omitempty"`
}

// Order is an immutable historical record of a checkout. Only the shipping
// fields may be corrected afterwards; lines are never mutated.
type Order struct {
	ID         int64       `db:"id" json:"id"`
	UserID     string      `db:"user_id" json:"user_id"`
	OrderDate  time.Time   `db:"order_date" json:"order_date"`
	Street     string      `db:"street" json:"street"`
	City       string      `db:"city" json:"city"`
	PostalCode string      `db:"postal_code" json:"postal_code"`
	Country    string      `db:"country" json:"country"`
	Items      []OrderLine `json:"items"`
}

// ShippingDetails is the address captured at checkout.
type ShippingDetails struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}
