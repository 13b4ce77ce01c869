package checkout

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/mlevasseur/boutique-api/internal/domain/address"
	"github.com/mlevasseur/boutique-api/internal/domain/cart"
	"github.com/mlevasseur/boutique-api/internal/domain/catalog"
	"github.com/mlevasseur/boutique-api/internal/domain/order"
)

// --- Mock implementation ---

type createdOrder struct {
	order *order.Order
	items []order.Item
}

type mockOrderRepo struct {
	nextID  int64
	created []createdOrder
	err     error
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order, items []order.Item) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.nextID++
	m.created = append(m.created, createdOrder{order: o, items: items})
	return m.nextID, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, _ int64) ([]order.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) Get(_ context.Context, _ int64) (*order.Order, error) {
	return nil, order.ErrNotFound
}

func (m *mockOrderRepo) ListItems(_ context.Context, _ int64) ([]order.Item, error) {
	return nil, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, _ int64, _ order.Status, _ string) error {
	return nil
}

// --- Helpers ---

type fulfillFixture struct {
	fulfiller *Fulfiller
	orders    *mockOrderRepo
	cartRepo  *mockCartRepo
	addresses *mockAddressRepo
}

func newFulfillFixture(lines map[int64][]cart.Line, products ...*catalog.Product) *fulfillFixture {
	byID := make(map[int64]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	catalogRepo := &mockCatalogRepo{byID: byID}
	cartRepo := &mockCartRepo{lines: lines}
	addressRepo := newMockAddressRepo()
	orders := &mockOrderRepo{}

	f := NewFulfiller(
		cart.NewService(cartRepo, catalogRepo),
		address.NewService(addressRepo),
		orders,
	)
	return &fulfillFixture{fulfiller: f, orders: orders, cartRepo: cartRepo, addresses: addressRepo}
}

func completedSession(userID string, amountTotal int64) *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:          "cs_test_123",
		AmountTotal: amountTotal,
		Metadata: map[string]string{
			"user_id":        userID,
			"customer_email": "jean@example.com",
			"customer_name":  "Jean Martin",
		},
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_test_456"},
	}
}

// --- Tests ---

func TestFulfillSession_CreatesOrderFromCart(t *testing.T) {
	p1 := testProduct(1, "mug", 1250)
	p2 := testProduct(2, "poster", 900)
	f := newFulfillFixture(cartOf(10,
		cart.Line{Item: cart.Item{ID: 1, UserID: 10, ProductID: 1, Quantity: 2}, Product: p1},
		cart.Line{Item: cart.Item{ID: 2, UserID: 10, ProductID: 2, Quantity: 1}, Product: p2},
	), p1, p2)

	require.NoError(t, f.fulfiller.FulfillSession(context.Background(), completedSession("10", 3400)))

	require.Len(t, f.orders.created, 1)
	o := f.orders.created[0].order
	assert.Equal(t, int64(10), o.UserID)
	assert.Equal(t, order.StatusProcessing, o.Status)
	assert.Equal(t, int64(3400), o.TotalAmount)
	assert.Equal(t, "pi_test_456", o.PaymentRef)
	assert.Regexp(t, `^ORD-[A-Z0-9]{10}$`, o.Number)

	items := f.orders.created[0].items
	require.Len(t, items, 2)
	assert.Equal(t, "mug", items[0].ProductName)
	assert.Equal(t, "a.jpg", items[0].ProductImage)
	assert.Equal(t, int32(2), items[0].Quantity)
	assert.Equal(t, int64(1250), items[0].PriceAtPurchase)
}

func TestFulfillSession_TotalComesFromProvider(t *testing.T) {
	// A promotion code can make the charged amount differ from the cart sum;
	// the provider's figure wins.
	p1 := testProduct(1, "mug", 1250)
	f := newFulfillFixture(cartOf(10,
		cart.Line{Item: cart.Item{ID: 1, UserID: 10, ProductID: 1, Quantity: 2}, Product: p1},
	), p1)

	require.NoError(t, f.fulfiller.FulfillSession(context.Background(), completedSession("10", 2000)))

	require.Len(t, f.orders.created, 1)
	assert.Equal(t, int64(2000), f.orders.created[0].order.TotalAmount)
}

func TestFulfillSession_ClearsCartAfterOrder(t *testing.T) {
	p1 := testProduct(1, "mug", 1250)
	f := newFulfillFixture(cartOf(10,
		cart.Line{Item: cart.Item{ID: 1, UserID: 10, ProductID: 1, Quantity: 1}, Product: p1},
	), p1)

	require.NoError(t, f.fulfiller.FulfillSession(context.Background(), completedSession("10", 1250)))

	assert.Equal(t, []int64{10}, f.cartRepo.cleared)
	lines, err := f.cartRepo.ListByUser(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestFulfillSession_ReplayedEventIsNoOp(t *testing.T) {
	p1 := testProduct(1, "mug", 1250)
	f := newFulfillFixture(cartOf(10,
		cart.Line{Item: cart.Item{ID: 1, UserID: 10, ProductID: 1, Quantity: 1}, Product: p1},
	), p1)

	sess := completedSession("10", 1250)
	require.NoError(t, f.fulfiller.FulfillSession(context.Background(), sess))
	require.NoError(t, f.fulfiller.FulfillSession(context.Background(), sess))

	// The first delivery cleared the cart, so the replay materializes nothing.
	assert.Len(t, f.orders.created, 1)
}

func TestFulfillSession_MissingUserMetadataDropsEvent(t *testing.T) {
	p1 := testProduct(1, "mug", 1250)
	f := newFulfillFixture(cartOf(10,
		cart.Line{Item: cart.Item{ID: 1, UserID: 10, ProductID: 1, Quantity: 1}, Product: p1},
	), p1)

	sess := completedSession("10", 1250)
	sess.Metadata = nil

	// Dropped, not failed: a permanent error must not trigger retries.
	require.NoError(t, f.fulfiller.FulfillSession(context.Background(), sess))
	assert.Empty(t, f.orders.created)
	assert.Empty(t, f.cartRepo.cleared)
}

func TestFulfillSession_MalformedUserMetadataDropsEvent(t *testing.T) {
	f := newFulfillFixture(nil)

	require.NoError(t, f.fulfiller.FulfillSession(context.Background(), completedSession("not-a-number", 1250)))
	assert.Empty(t, f.orders.created)
}

func TestFulfillSession_OrderCreateErrorKeepsCart(t *testing.T) {
	p1 := testProduct(1, "mug", 1250)
	f := newFulfillFixture(cartOf(10,
		cart.Line{Item: cart.Item{ID: 1, UserID: 10, ProductID: 1, Quantity: 1}, Product: p1},
	), p1)
	f.orders.err = errors.New("db write failed")

	err := f.fulfiller.FulfillSession(context.Background(), completedSession("10", 1250))
	require.Error(t, err)

	// Cart intact so the retried delivery can materialize the order.
	assert.Empty(t, f.cartRepo.cleared)
	lines, listErr := f.cartRepo.ListByUser(context.Background(), 10)
	require.NoError(t, listErr)
	assert.Len(t, lines, 1)
}

func TestFulfillSession_ShippingDetailsReuseSavedAddress(t *testing.T) {
	p1 := testProduct(1, "mug", 1250)
	f := newFulfillFixture(cartOf(10,
		cart.Line{Item: cart.Item{ID: 1, UserID: 10, ProductID: 1, Quantity: 1}, Product: p1},
	), p1)

	saved, err := f.addresses.Create(context.Background(), 10, address.Input{
		FullName: "Jean Martin", Line1: "1 rue A", City: "Lyon", PostalCode: "69001", Country: "FR",
	})
	require.NoError(t, err)

	sess := completedSession("10", 1250)
	sess.ShippingDetails = &stripe.ShippingDetails{
		Name: "Jean Martin",
		Address: &stripe.Address{
			Line1:      "1 rue A",
			City:       "Lyon",
			PostalCode: "69001",
			Country:    "FR",
		},
	}

	require.NoError(t, f.fulfiller.FulfillSession(context.Background(), sess))

	require.Len(t, f.orders.created, 1)
	o := f.orders.created[0].order
	require.NotNil(t, o.ShippingAddressID)
	assert.Equal(t, saved.ID, *o.ShippingAddressID)
}

func TestFulfillSession_UnknownShippingAddressIsSaved(t *testing.T) {
	p1 := testProduct(1, "mug", 1250)
	f := newFulfillFixture(cartOf(10,
		cart.Line{Item: cart.Item{ID: 1, UserID: 10, ProductID: 1, Quantity: 1}, Product: p1},
	), p1)

	sess := completedSession("10", 1250)
	sess.ShippingDetails = &stripe.ShippingDetails{
		Address: &stripe.Address{
			Line1:      "5 avenue C",
			City:       "Nice",
			PostalCode: "06000",
			Country:    "FR",
		},
	}

	require.NoError(t, f.fulfiller.FulfillSession(context.Background(), sess))

	require.Len(t, f.orders.created, 1)
	o := f.orders.created[0].order
	require.NotNil(t, o.ShippingAddressID)

	got, err := f.addresses.Get(context.Background(), *o.ShippingAddressID)
	require.NoError(t, err)
	assert.Equal(t, "5 avenue C", got.Line1)
	assert.False(t, got.Default)
	// No shipping name on the session, so the metadata email stands in.
	assert.Equal(t, "jean@example.com", got.FullName)
}

func TestFulfillSession_NoShippingDetails(t *testing.T) {
	p1 := testProduct(1, "mug", 1250)
	f := newFulfillFixture(cartOf(10,
		cart.Line{Item: cart.Item{ID: 1, UserID: 10, ProductID: 1, Quantity: 1}, Product: p1},
	), p1)

	require.NoError(t, f.fulfiller.FulfillSession(context.Background(), completedSession("10", 1250)))

	require.Len(t, f.orders.created, 1)
	assert.Nil(t, f.orders.created[0].order.ShippingAddressID)
}
