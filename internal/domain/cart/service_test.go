package cart

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"pet-adoption-marketplace/internal/ports/auth"
	"pet-adoption-marketplace/internal/ports/notify"
	"pet-adoption-marketplace/internal/ports/recordstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test repos (in-memory)
// -------------------------

type testProducts struct {
	byID map[string]Product
}

func (r *testProducts) CreateProduct(_ context.Context, p Product) error {
	r.byID[p.ID] = p
	return nil
}

func (r *testProducts) GetProduct(_ context.Context, id string) (Product, error) {
	p, ok := r.byID[id]
	if !ok {
		return Product{}, recordstore.ErrNotFound
	}
	return p, nil
}

func (r *testProducts) ListProducts(_ context.Context, category Category) ([]Product, error) {
	out := make([]Product, 0)
	for _, p := range r.byID {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type testItems struct {
	byKey    map[[2]string]Item
	clearErr error
}

func (r *testItems) GetItem(_ context.Context, userID, productID string) (Item, error) {
	it, ok := r.byKey[[2]string{userID, productID}]
	if !ok {
		return Item{}, recordstore.ErrNotFound
	}
	return it, nil
}

func (r *testItems) SaveItem(_ context.Context, it Item) error {
	r.byKey[[2]string{it.UserID, it.ProductID}] = it
	return nil
}

func (r *testItems) RemoveItem(_ context.Context, userID, productID string) error {
	delete(r.byKey, [2]string{userID, productID})
	return nil
}

func (r *testItems) ListItems(_ context.Context, userID string) ([]Item, error) {
	out := make([]Item, 0)
	for _, it := range r.byKey {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out, nil
}

func (r *testItems) Clear(_ context.Context, userID string) error {
	if r.clearErr != nil {
		return r.clearErr
	}
	for k, it := range r.byKey {
		if it.UserID == userID {
			delete(r.byKey, k)
		}
	}
	return nil
}

type recordingOrders struct {
	orders []notify.Order
	err    error
}

func (d *recordingOrders) DispatchOrder(_ context.Context, o notify.Order) error {
	if d.err != nil {
		return d.err
	}
	d.orders = append(d.orders, o)
	return nil
}

func newTestService() (*Service, *testItems, *recordingOrders) {
	products := &testProducts{byID: map[string]Product{
		"kibble": {ID: "kibble", Name: "Kibble 5kg", Category: CategoryFood, PriceCents: 2500},
		"ball":   {ID: "ball", Name: "Rubber ball", Category: CategoryToys, PriceCents: 499},
	}}
	items := &testItems{byKey: map[[2]string]Item{}}
	orders := &recordingOrders{}
	svc := NewService(Deps{Products: products, Items: items, Orders: orders})

	clock := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { clock = clock.Add(time.Second); return clock }
	return svc, items, orders
}

func buyer() *auth.Session { return &auth.Session{UserID: "u1", Email: "u1@example.com"} }

func TestAdd_AccumulatesQuantityAndTotal(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Add(ctx, buyer(), "kibble", 0)
	require.NoError(t, err)
	_, err = svc.Add(ctx, buyer(), "ball", 2)
	require.NoError(t, err)
	c, err := svc.Add(ctx, buyer(), "kibble", 1)
	require.NoError(t, err)

	require.Len(t, c.Lines, 2)
	assert.Equal(t, "kibble", c.Lines[0].Product.ID)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.Equal(t, int64(5000), c.Lines[0].LineTotalCents)
	assert.Equal(t, 4, c.ItemCount)
	assert.Equal(t, int64(5000+998), c.TotalCents)

	_, err = svc.Add(ctx, buyer(), "ghost", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	_, err = svc.Add(ctx, nil, "kibble", 1)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestUpdateQuantityAndRemove(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Add(ctx, buyer(), "ball", 1)
	require.NoError(t, err)

	c, err := svc.UpdateQuantity(ctx, buyer(), "ball", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1497), c.TotalCents)

	_, err = svc.UpdateQuantity(ctx, buyer(), "ball", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UpdateQuantity(ctx, buyer(), "kibble", 2)
	assert.ErrorIs(t, err, ErrItemNotFound)

	c, err = svc.Remove(ctx, buyer(), "ball")
	require.NoError(t, err)
	assert.Empty(t, c.Lines)
	assert.Zero(t, c.TotalCents)
}

func TestCheckout_DispatchesOneOrderAndClears(t *testing.T) {
	svc, items, orders := newTestService()
	ctx := context.Background()

	_, err := svc.Checkout(ctx, buyer())
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = svc.Add(ctx, buyer(), "kibble", 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, buyer(), "ball", 1)
	require.NoError(t, err)

	order, err := svc.Checkout(ctx, buyer())
	require.NoError(t, err)
	require.Len(t, orders.orders, 1)
	assert.Equal(t, order.ID, orders.orders[0].ID)
	assert.Equal(t, "u1@example.com", order.UserEmail)
	assert.Equal(t, int64(5499), order.TotalCents)
	require.Len(t, order.Lines, 2)
	assert.Equal(t, "Kibble 5kg", order.Lines[0].ProductName)
	assert.Equal(t, int64(2500), order.Lines[0].UnitPriceCents)

	assert.Empty(t, items.byKey)
}

func TestCheckout_DispatchFailureKeepsCart(t *testing.T) {
	svc, items, orders := newTestService()
	ctx := context.Background()
	orders.err = errors.New("smtp down")

	_, err := svc.Add(ctx, buyer(), "ball", 1)
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, buyer())
	assert.ErrorIs(t, err, ErrCheckoutFailed)
	assert.Len(t, items.byKey, 1)
}

func TestCheckout_ClearFailureStillSucceeds(t *testing.T) {
	svc, items, orders := newTestService()
	ctx := context.Background()
	items.clearErr = errors.New("db blip")

	_, err := svc.Add(ctx, buyer(), "ball", 1)
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, buyer())
	require.NoError(t, err)
	assert.Len(t, orders.orders, 1)
}

func TestCreateProduct_AdminOnlyAndValidated(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	admin := &auth.Session{UserID: "a1", Admin: true}
	in := CreateProductInput{Name: "Leash", Category: "Accessories", PriceCents: 1200}

	_, err := svc.CreateProduct(ctx, buyer(), in)
	assert.ErrorIs(t, err, ErrForbidden)

	bad := in
	bad.SalePriceCents = 1500
	_, err = svc.CreateProduct(ctx, admin, bad)
	assert.ErrorIs(t, err, ErrInvalidInput)

	p, err := svc.CreateProduct(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, CategoryAccessories, p.Category)
	assert.Equal(t, "all", p.PetType)

	list, err := svc.ListProducts(ctx, "accessories")
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.ListProducts(ctx, "weapons")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
