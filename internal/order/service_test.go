package order

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oakline/storefront/internal/apperr"
	cartentity "github.com/oakline/storefront/internal/cart/entity"
	catalogentity "github.com/oakline/storefront/internal/catalog/entity"
	"github.com/oakline/storefront/internal/order/entity"
)

type fakeOrderStore struct {
	orders  map[int64]*entity.Order
	saveErr error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[int64]*entity.Order{}}
}

func (f *fakeOrderStore) Save(_ context.Context, o *entity.Order) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	clone := *o
	clone.Items = append([]entity.OrderLine{}, o.Items...)
	f.orders[o.ID] = &clone
	return nil
}

func (f *fakeOrderStore) Find(_ context.Context, id int64, userID string) (*entity.Order, error) {
	o, ok := f.orders[id]
	if !ok || o.UserID != userID {
		return nil, sql.ErrNoRows
	}
	clone := *o
	clone.Items = append([]entity.OrderLine{}, o.Items...)
	return &clone, nil
}

func (f *fakeOrderStore) List(_ context.Context, userID string) ([]entity.Order, error) {
	var out []entity.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) UpdateShipping(_ context.Context, o *entity.Order) error {
	stored, ok := f.orders[o.ID]
	if !ok || stored.UserID != o.UserID {
		return sql.ErrNoRows
	}
	stored.Street = o.Street
	stored.City = o.City
	stored.PostalCode = o.PostalCode
	stored.Country = o.Country
	return nil
}

func (f *fakeOrderStore) Delete(_ context.Context, id int64) error {
	delete(f.orders, id)
	return nil
}

type fakeCartReader struct {
	cart     *cartentity.Cart
	clearErr error
	cleared  bool
}

func (f *fakeCartReader) Load(_ context.Context, userID string) (*cartentity.Cart, error) {
	if f.cart == nil || f.cart.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return f.cart, nil
}

func (f *fakeCartReader) Clear(_ context.Context, _ string) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = true
	f.cart.Items = nil
	return nil
}

type fakeProductReader struct {
	products map[int64]*catalogentity.Product
}

func (f *fakeProductReader) GetByID(_ context.Context, id int64) (*catalogentity.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func testProducts() *fakeProductReader {
	return &fakeProductReader{products: map[int64]*catalogentity.Product{
		1: {ID: 1, Name: "Keyboard", Price: decimal.RequireFromString("10.00")},
		2: {ID: 2, Name: "Mouse", Price: decimal.RequireFromString("5.00")},
	}}
}

func testCart(userID string) *cartentity.Cart {
	return &cartentity.Cart{
		ID:     "cart-1",
		UserID: userID,
		Items: []cartentity.CartLine{
			{ProductID: 1, Quantity: decimal.NewFromInt(2)},
			{ProductID: 2, Quantity: decimal.NewFromInt(1)},
		},
	}
}

func testShipping() entity.ShippingDetails {
	return entity.ShippingDetails{Street: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	store := newFakeOrderStore()
	carts := &fakeCartReader{cart: testCart("a@x.com")}
	svc := NewService(store, carts, testProducts(), zap.NewNop().Sugar())

	o, err := svc.CreateOrder(ctx, "a@x.com", testShipping())
	require.NoError(t, err)

	assert.NotZero(t, o.ID)
	assert.Equal(t, "a@x.com", o.UserID)
	assert.False(t, o.OrderDate.IsZero())
	assert.Equal(t, "Springfield", o.City)
	require.Len(t, o.Items, 2)

	byProduct := map[int64]entity.OrderLine{}
	for _, l := range o.Items {
		byProduct[l.ProductID] = l
	}
	assert.True(t, byProduct[1].PriceAtPurchase.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, byProduct[1].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, byProduct[2].PriceAtPurchase.Equal(decimal.RequireFromString("5.00")))

	assert.True(t, carts.cleared, "the cart must be cleared after the order persists")
	assert.Len(t, store.orders, 1)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	ctx := context.Background()

	t.Run("no cart at all", func(t *testing.T) {
		store := newFakeOrderStore()
		svc := NewService(store, &fakeCartReader{}, testProducts(), zap.NewNop().Sugar())

		_, err := svc.CreateOrder(ctx, "a@x.com", testShipping())
		require.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		assert.Equal(t, "cart is empty", apperr.Message(err))
		assert.Empty(t, store.orders)
	})

	t.Run("cart with no lines", func(t *testing.T) {
		store := newFakeOrderStore()
		carts := &fakeCartReader{cart: &cartentity.Cart{ID: "cart-1", UserID: "a@x.com"}}
		svc := NewService(store, carts, testProducts(), zap.NewNop().Sugar())

		_, err := svc.CreateOrder(ctx, "a@x.com", testShipping())
		require.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		assert.Empty(t, store.orders)
	})
}

func TestCreateOrder_MissingProductFailsWhole(t *testing.T) {
	ctx := context.Background()
	store := newFakeOrderStore()
	cart := testCart("a@x.com")
	cart.Items = append(cart.Items, cartentity.CartLine{ProductID: 999, Quantity: decimal.NewFromInt(1)})
	carts := &fakeCartReader{cart: cart}
	svc := NewService(store, carts, testProducts(), zap.NewNop().Sugar())

	_, err := svc.CreateOrder(ctx, "a@x.com", testShipping())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "product 999 not found", apperr.Message(err))

	assert.Empty(t, store.orders, "no order may be written when any product is missing")
	assert.False(t, carts.cleared, "the cart must survive a failed checkout")
	assert.Len(t, cart.Items, 3)
}

func TestCreateOrder_PersistFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	store := newFakeOrderStore()
	store.saveErr = errors.New("deadlock detected")
	carts := &fakeCartReader{cart: testCart("a@x.com")}
	svc := NewService(store, carts, testProducts(), zap.NewNop().Sugar())

	_, err := svc.CreateOrder(ctx, "a@x.com", testShipping())
	require.Error(t, err)

	assert.Empty(t, store.orders, "a failed persist must leave no order behind")
	assert.False(t, carts.cleared, "the cart must survive a failed persist")
	assert.Len(t, carts.cart.Items, 2)
}

func TestCreateOrder_ClearFailureStillReturnsOrder(t *testing.T) {
	ctx := context.Background()
	store := newFakeOrderStore()
	carts := &fakeCartReader{cart: testCart("a@x.com"), clearErr: errors.New("connection reset")}
	svc := NewService(store, carts, testProducts(), zap.NewNop().Sugar())

	o, err := svc.CreateOrder(ctx, "a@x.com", testShipping())
	require.NoError(t, err, "a failed clear must not fail the checkout")
	assert.Len(t, store.orders, 1)
	assert.NotNil(t, o)
}

func TestGetOrder_ScopedToOwner(t *testing.T) {
	ctx := context.Background()
	store := newFakeOrderStore()
	carts := &fakeCartReader{cart: testCart("a@x.com")}
	svc := NewService(store, carts, testProducts(), zap.NewNop().Sugar())

	created, err := svc.CreateOrder(ctx, "a@x.com", testShipping())
	require.NoError(t, err)

	got, err := svc.GetOrder(ctx, created.ID, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	for _, l := range got.Items {
		require.NotNil(t, l.Product, "lines should carry the hydrated product")
	}

	_, err = svc.GetOrder(ctx, created.ID, "b@x.com")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "order not found", apperr.Message(err))
}

func TestListOrders(t *testing.T) {
	ctx := context.Background()
	store := newFakeOrderStore()
	carts := &fakeCartReader{cart: testCart("a@x.com")}
	svc := NewService(store, carts, testProducts(), zap.NewNop().Sugar())

	_, err := svc.CreateOrder(ctx, "a@x.com", testShipping())
	require.NoError(t, err)

	mine, err := svc.ListOrders(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Len(t, mine[0].Items, 2)

	theirs, err := svc.ListOrders(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestUpdateOrder(t *testing.T) {
	ctx := context.Background()
	store := newFakeOrderStore()
	carts := &fakeCartReader{cart: testCart("a@x.com")}
	svc := NewService(store, carts, testProducts(), zap.NewNop().Sugar())

	created, err := svc.CreateOrder(ctx, "a@x.com", testShipping())
	require.NoError(t, err)

	updated, err := svc.UpdateOrder(ctx, created.ID, "a@x.com", entity.ShippingDetails{
		Street: "2 Oak Ave", City: "Shelbyville", PostalCode: "54321", Country: "US",
	})
	require.NoError(t, err)
	assert.Equal(t, "Shelbyville", updated.City)

	got, err := svc.GetOrder(ctx, created.ID, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "2 Oak Ave", got.Street)

	_, err = svc.UpdateOrder(ctx, created.ID, "b@x.com", testShipping())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteOrder(t *testing.T) {
	ctx := context.Background()
	store := newFakeOrderStore()
	carts := &fakeCartReader{cart: testCart("a@x.com")}
	svc := NewService(store, carts, testProducts(), zap.NewNop().Sugar())

	created, err := svc.CreateOrder(ctx, "a@x.com", testShipping())
	require.NoError(t, err)

	err = svc.DeleteOrder(ctx, created.ID, "b@x.com")
	require.Error(t, err, "another user must not be able to delete the order")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.NoError(t, svc.DeleteOrder(ctx, created.ID, "a@x.com"))

	_, err = svc.GetOrder(ctx, created.ID, "a@x.com")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
