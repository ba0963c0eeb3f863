package entity

import "github.com/shopspring/decimal"

// CartLine is one product in a cart. Quantity is a decimal to match the
// monetary columns it multiplies against, but always holds a whole count.
type CartLine struct {
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
}

// Cart holds one user's pending purchase. A user has at most one cart,
// created lazily on first use, and a cart holds at most one line per product.
type Cart struct {
	ID     string     `db:"id" json:"id"`
	UserID string     `db:"user_id" json:"user_id"`
	Items  []CartLine `json:"items"`
}

// Line returns the line for productID, or nil.
func (c *Cart) Line(productID int64) *CartLine {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}
