package cart

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oakline/storefront/internal/apperr"
	"github.com/oakline/storefront/internal/cart/entity"
	catalogentity "github.com/oakline/storefront/internal/catalog/entity"
)

// CartStore is the cart persistence adapter. Load returns sql.ErrNoRows when
// the user has no cart.
type CartStore interface {
	Load(ctx context.Context, userID string) (*entity.Cart, error)
	Save(ctx context.Context, c *entity.Cart) error
	Clear(ctx context.Context, userID string) error
}

// ProductReader is the catalog collaborator; GetByID returns sql.ErrNoRows
// for a missing product.
type ProductReader interface {
	GetByID(ctx context.Context, id int64) (*catalogentity.Product, error)
}

var one = decimal.NewFromInt(1)

// Service manages one cart per user. Every mutating call re-reads and
// persists the whole cart; concurrent mutations of the same cart are
// last-writer-wins at this layer.
type Service struct {
	store    CartStore
	products ProductReader
	logger   *zap.SugaredLogger
}

func NewService(store CartStore, products ProductReader, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, products: products, logger: logger}
}

// GetOrCreate fetches the user's cart, creating and persisting an empty one
// when none exists.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (*entity.Cart, error) {
	c, err := s.store.Load(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	c = &entity.Cart{ID: uuid.NewString(), UserID: userID, Items: []entity.CartLine{}}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Debugw("cart created", "user_id", userID, "cart_id", c.ID)
	return c, nil
}

// AddItem puts one unit of the product into the cart, incrementing the
// existing line instead of duplicating it.
func (s *Service) AddItem(ctx context.Context, userID string, productID int64) error {
	c, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "product not found")
		}
		return err
	}
	if line := c.Line(productID); line != nil {
		line.Quantity = line.Quantity.Add(one)
	} else {
		c.Items = append(c.Items, entity.CartLine{ProductID: productID, Quantity: one})
	}
	if err := s.store.Save(ctx, c); err != nil {
		return err
	}
	s.logger.Debugw("cart item added", "user_id", userID, "product_id", productID)
	return nil
}

// RemoveItem drops the product's line from the cart. A cart without that
// line is a no-op; a user without a cart is an error.
func (s *Service) RemoveItem(ctx context.Context, userID string, productID int64) error {
	c, err := s.store.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "cart not found")
		}
		return err
	}
	kept := c.Items[:0]
	removed := false
	for _, line := range c.Items {
		if line.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, line)
	}
	if !removed {
		return nil
	}
	c.Items = kept
	if err := s.store.Save(ctx, c); err != nil {
		return err
	}
	s.logger.Debugw("cart item removed", "user_id", userID, "product_id", productID)
	return nil
}

// Clear empties the user's cart; absence of a cart is a no-op.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.store.Clear(ctx, userID)
}
