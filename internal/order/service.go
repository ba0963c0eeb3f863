package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oakline/storefront/internal/apperr"
	cartentity "github.com/oakline/storefront/internal/cart/entity"
	catalogentity "github.com/oakline/storefront/internal/catalog/entity"
	"github.com/oakline/storefront/internal/order/entity"
	"github.com/oakline/storefront/pkg/utilities"
)

// OrderStore is the order persistence adapter. Find returns sql.ErrNoRows
// when no order matches the (id, user) pair.
type OrderStore interface {
	Save(ctx context.Context, o *entity.Order) error
	Find(ctx context.Context, id int64, userID string) (*entity.Order, error)
	List(ctx context.Context, userID string) ([]entity.Order, error)
	UpdateShipping(ctx context.Context, o *entity.Order) error
	Delete(ctx context.Context, id int64) error
}

// CartReader is the slice of the cart store the orchestrator needs: a
// snapshot read and the post-checkout clear.
type CartReader interface {
	Load(ctx context.Context, userID string) (*cartentity.Cart, error)
	Clear(ctx context.Context, userID string) error
}

// ProductReader resolves current catalog state; sql.ErrNoRows for a missing
// product.
type ProductReader interface {
	GetByID(ctx context.Context, id int64) (*catalogentity.Product, error)
}

const maxProductLookups = 10

// Service converts a mutable cart into an immutable order with price
// snapshotting, and serves order queries.
type Service struct {
	store    OrderStore
	carts    CartReader
	products ProductReader
	logger   *zap.SugaredLogger
}

func NewService(store OrderStore, carts CartReader, products ProductReader, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, carts: carts, products: products, logger: logger}
}

// CreateOrder checks out the user's cart. Validation is all-or-nothing and
// runs before any persistence: a missing product fails the whole operation
// with no order written and the cart untouched. The cart is cleared only
// after the order persists; a failed clear is logged, not rolled back, since
// the persisted order is already the source of truth.
func (s *Service) CreateOrder(ctx context.Context, userID string, shipping entity.ShippingDetails) (*entity.Order, error) {
	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindConflict, "cart is empty")
		}
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, apperr.New(apperr.KindConflict, "cart is empty")
	}

	lines := make([]entity.OrderLine, len(c.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxProductLookups)
	for i, item := range c.Items {
		g.Go(func() error {
			p, err := s.products.GetByID(gctx, item.ProductID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return apperr.New(apperr.KindNotFound, fmt.Sprintf("product %d not found", item.ProductID))
				}
				return err
			}
			lines[i] = entity.OrderLine{
				ProductID:       item.ProductID,
				Quantity:        item.Quantity,
				PriceAtPurchase: p.Price,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	id, err := utilities.NewSnowflakeID()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "could not assign order id")
	}
	o := &entity.Order{
		ID:         id,
		UserID:     userID,
		OrderDate:  time.Now().UTC(),
		Street:     shipping.Street,
		City:       shipping.City,
		PostalCode: shipping.PostalCode,
		Country:    shipping.Country,
		Items:      lines,
	}
	if err := s.store.Save(ctx, o); err != nil {
		return nil, err
	}
	if err := s.carts.Clear(ctx, userID); err != nil {
		// the order is durable; surface the leftover cart in the logs only
		s.logger.Warnw("cart clear failed after order persisted", "user_id", userID, "order_id", o.ID, "err", err)
	}
	s.logger.Infow("order created", "user_id", userID, "order_id", o.ID, "lines", len(o.Items))
	return o, nil
}

// GetOrder returns the order scoped to its owner, with each line's product
// hydrated for display. Hydration is a read-only join: a since-deleted
// product leaves the reference nil and never touches the frozen price.
func (s *Service) GetOrder(ctx context.Context, id int64, userID string) (*entity.Order, error) {
	o, err := s.store.Find(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "order not found")
		}
		return nil, err
	}
	s.hydrate(ctx, o)
	return o, nil
}

// ListOrders returns the user's orders with hydrated lines.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]entity.Order, error) {
	orders, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		s.hydrate(ctx, &orders[i])
	}
	return orders, nil
}

// UpdateOrder corrects shipping fields after re-verifying the order exists
// for this user.
func (s *Service) UpdateOrder(ctx context.Context, id int64, userID string, shipping entity.ShippingDetails) (*entity.Order, error) {
	o, err := s.store.Find(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "order not found")
		}
		return nil, err
	}
	o.Street = shipping.Street
	o.City = shipping.City
	o.PostalCode = shipping.PostalCode
	o.Country = shipping.Country
	if err := s.store.UpdateShipping(ctx, o); err != nil {
		return nil, err
	}
	s.logger.Infow("order updated", "order_id", id, "user_id", userID)
	return o, nil
}

// DeleteOrder removes an order, scoped to the owning user.
func (s *Service) DeleteOrder(ctx context.Context, id int64, userID string) error {
	if _, err := s.store.Find(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "order not found")
		}
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Infow("order deleted", "order_id", id, "user_id", userID)
	return nil
}

func (s *Service) hydrate(ctx context.Context, o *entity.Order) {
	for i := range o.Items {
		p, err := s.products.GetByID(ctx, o.Items[i].ProductID)
		if err != nil {
			continue
		}
		o.Items[i].Product = p
	}
}
