package checkout

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/mlevasseur/boutique-api/internal/domain/address"
	"github.com/mlevasseur/boutique-api/internal/domain/auth"
	"github.com/mlevasseur/boutique-api/internal/domain/cart"
	"github.com/mlevasseur/boutique-api/internal/domain/catalog"
)

// --- Mock implementations ---

type mockCatalogRepo struct {
	byID map[int64]*catalog.Product
}

func (m *mockCatalogRepo) ListCategories(_ context.Context) ([]catalog.Category, error) {
	return nil, nil
}

func (m *mockCatalogRepo) ListProducts(_ context.Context, _ catalog.ListFilter) ([]catalog.Product, error) {
	return nil, nil
}

func (m *mockCatalogRepo) GetProductBySlug(_ context.Context, _ string) (*catalog.Product, error) {
	return nil, catalog.ErrNotFound
}

func (m *mockCatalogRepo) GetProductByID(_ context.Context, id int64) (*catalog.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

type mockCartRepo struct {
	lines   map[int64][]cart.Line
	cleared []int64
}

func (m *mockCartRepo) ListByUser(_ context.Context, userID int64) ([]cart.Line, error) {
	return m.lines[userID], nil
}

func (m *mockCartRepo) GetItem(_ context.Context, _ int64) (*cart.Item, error) {
	return nil, cart.ErrItemNotFound
}

func (m *mockCartRepo) Add(_ context.Context, _, _ int64, _ int32) error { return nil }

func (m *mockCartRepo) SetQuantity(_ context.Context, _ int64, _ int32) error { return nil }

func (m *mockCartRepo) Delete(_ context.Context, _ int64) error { return nil }

func (m *mockCartRepo) Clear(_ context.Context, userID int64) error {
	m.cleared = append(m.cleared, userID)
	delete(m.lines, userID)
	return nil
}

type mockAddressRepo struct {
	nextID int64
	rows   map[int64]*address.Address
}

func newMockAddressRepo() *mockAddressRepo {
	return &mockAddressRepo{rows: make(map[int64]*address.Address)}
}

func (m *mockAddressRepo) ListByUser(_ context.Context, userID int64) ([]address.Address, error) {
	var out []address.Address
	for _, a := range m.rows {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAddressRepo) Get(_ context.Context, id int64) (*address.Address, error) {
	a, ok := m.rows[id]
	if !ok {
		return nil, address.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAddressRepo) Create(_ context.Context, userID int64, in address.Input) (*address.Address, error) {
	m.nextID++
	a := &address.Address{
		ID:         m.nextID,
		UserID:     userID,
		FullName:   in.FullName,
		Line1:      in.Line1,
		Line2:      in.Line2,
		City:       in.City,
		PostalCode: in.PostalCode,
		Country:    in.Country,
		Phone:      in.Phone,
		Default:    in.Default,
	}
	m.rows[a.ID] = a
	cp := *a
	return &cp, nil
}

func (m *mockAddressRepo) Update(_ context.Context, _ int64, _ address.Input) error { return nil }

func (m *mockAddressRepo) Delete(_ context.Context, id int64) error {
	delete(m.rows, id)
	return nil
}

func (m *mockAddressRepo) ClearDefault(_ context.Context, _ int64) error { return nil }

type mockSessionCreator struct {
	lastParams *stripe.CheckoutSessionParams
	calls      int
	err        error
}

func (m *mockSessionCreator) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	m.calls++
	m.lastParams = params
	if m.err != nil {
		return nil, m.err
	}
	return &stripe.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.example/cs_test_123"}, nil
}

// --- Helpers ---

type fixture struct {
	svc       *Service
	sessions  *mockSessionCreator
	cartRepo  *mockCartRepo
	addresses *mockAddressRepo
}

func newFixture(lines map[int64][]cart.Line, products ...*catalog.Product) *fixture {
	byID := make(map[int64]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	catalogRepo := &mockCatalogRepo{byID: byID}
	cartRepo := &mockCartRepo{lines: lines}
	addressRepo := newMockAddressRepo()
	sessions := &mockSessionCreator{}

	svc := NewService(
		cart.NewService(cartRepo, catalogRepo),
		address.NewService(addressRepo),
		sessions,
		Config{Currency: "eur", AllowedCountries: []string{"FR", "BE", "CH", "LU", "MC"}},
	)
	return &fixture{svc: svc, sessions: sessions, cartRepo: cartRepo, addresses: addressRepo}
}

func testUser() auth.User {
	return auth.User{ID: 10, Email: "jean@example.com", Name: "Jean Martin"}
}

func testProduct(id int64, name string, price int64) *catalog.Product {
	return &catalog.Product{ID: id, Name: name, Slug: name, Price: price, Images: `["a.jpg","b.jpg"]`}
}

func cartOf(userID int64, entries ...cart.Line) map[int64][]cart.Line {
	return map[int64][]cart.Line{userID: entries}
}

// --- Tests ---

func TestCreateSession_EmptyCart(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.CreateSession(context.Background(), testUser(), SessionRequest{}, "https://shop.example")
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, f.sessions.calls)
}

func TestCreateSession_OnlyDeletedProducts(t *testing.T) {
	f := newFixture(cartOf(10, cart.Line{Item: cart.Item{ID: 1, UserID: 10, Quantity: 2}, Product: nil}))

	_, err := f.svc.CreateSession(context.Background(), testUser(), SessionRequest{}, "https://shop.example")
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, f.sessions.calls)
}

func TestCreateSession_LineItemsInMinorUnits(t *testing.T) {
	p1 := testProduct(1, "mug", 1250)
	p2 := testProduct(2, "poster", 900)
	f := newFixture(cartOf(10,
		cart.Line{Item: cart.Item{ID: 1, UserID: 10, ProductID: 1, Quantity: 2}, Product: p1},
		cart.Line{Item: cart.Item{ID: 2, UserID: 10, ProductID: 2, Quantity: 1}, Product: p2},
	), p1, p2)

	url, err := f.svc.CreateSession(context.Background(), testUser(), SessionRequest{}, "https://shop.example")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/cs_test_123", url)

	params := f.sessions.lastParams
	require.NotNil(t, params)
	require.Len(t, params.LineItems, 2)

	li := params.LineItems[0]
	assert.Equal(t, "eur", *li.PriceData.Currency)
	assert.Equal(t, int64(1250), *li.PriceData.UnitAmount)
	assert.Equal(t, "mug", *li.PriceData.ProductData.Name)
	require.Len(t, li.PriceData.ProductData.Images, 1)
	assert.Equal(t, "a.jpg", *li.PriceData.ProductData.Images[0])
	assert.Equal(t, int64(2), *li.Quantity)
}

func TestCreateSession_SkipsDeletedProductLines(t *testing.T) {
	p1 := testProduct(1, "mug", 1250)
	f := newFixture(cartOf(10,
		cart.Line{Item: cart.Item{ID: 1, UserID: 10, ProductID: 1, Quantity: 1}, Product: p1},
		cart.Line{Item: cart.Item{ID: 2, UserID: 10, ProductID: 2, Quantity: 4}, Product: nil},
	), p1)

	_, err := f.svc.CreateSession(context.Background(), testUser(), SessionRequest{}, "https://shop.example")
	require.NoError(t, err)
	assert.Len(t, f.sessions.lastParams.LineItems, 1)
}

func TestCreateSession_RedirectsAndMetadata(t *testing.T) {
	p1 := testProduct(1, "mug", 1250)
	f := newFixture(cartOf(10,
		cart.Line{Item: cart.Item{ID: 1, UserID: 10, ProductID: 1, Quantity: 1}, Product: p1},
	), p1)

	_, err := f.svc.CreateSession(context.Background(), testUser(), SessionRequest{}, "https://shop.example")
	require.NoError(t, err)

	params := f.sessions.lastParams
	assert.Equal(t, "https://shop.example/checkout/success?session_id={CHECKOUT_SESSION_ID}", *params.SuccessURL)
	assert.Equal(t, "https://shop.example/checkout", *params.CancelURL)
	assert.Equal(t, "payment", *params.Mode)
	assert.Equal(t, "jean@example.com", *params.CustomerEmail)
	assert.True(t, *params.AllowPromotionCodes)
	assert.Equal(t, "10", params.Metadata["user_id"])
	assert.Equal(t, "jean@example.com", params.Metadata["customer_email"])
	assert.Equal(t, "Jean Martin", params.Metadata["customer_name"])
}

func TestCreateSession_NoAddressCollectsOne(t *testing.T) {
	p1 := testProduct(1, "mug", 1250)
	f := newFixture(cartOf(10,
		cart.Line{Item: cart.Item{ID: 1, UserID: 10, ProductID: 1, Quantity: 1}, Product: p1},
	), p1)

	_, err := f.svc.CreateSession(context.Background(), testUser(), SessionRequest{}, "https://shop.example")
	require.NoError(t, err)

	params := f.sessions.lastParams
	require.NotNil(t, params.ShippingAddressCollection)
	require.Len(t, params.ShippingAddressCollection.AllowedCountries, 5)
	assert.Equal(t, "FR", *params.ShippingAddressCollection.AllowedCountries[0])
	assert.Empty(t, params.ShippingOptions)
}

func TestCreateSession_SavedAddressGetsFreeShipping(t *testing.T) {
	p1 := testProduct(1, "mug", 1250)
	f := newFixture(cartOf(10,
		cart.Line{Item: cart.Item{ID: 1, UserID: 10, ProductID: 1, Quantity: 1}, Product: p1},
	), p1)

	saved, err := f.addresses.Create(context.Background(), 10, address.Input{
		FullName: "Jean Martin", Line1: "1 rue A", City: "Lyon", PostalCode: "69001", Country: "FR",
	})
	require.NoError(t, err)

	_, err = f.svc.CreateSession(context.Background(), testUser(), SessionRequest{AddressID: &saved.ID}, "https://shop.example")
	require.NoError(t, err)

	params := f.sessions.lastParams
	assert.Nil(t, params.ShippingAddressCollection)
	require.Len(t, params.ShippingOptions, 1)
	rate := params.ShippingOptions[0].ShippingRateData
	assert.Equal(t, int64(0), *rate.FixedAmount.Amount)
	assert.Equal(t, "Free shipping", *rate.DisplayName)
}

func TestCreateSession_ForeignAddressRejected(t *testing.T) {
	p1 := testProduct(1, "mug", 1250)
	f := newFixture(cartOf(10,
		cart.Line{Item: cart.Item{ID: 1, UserID: 10, ProductID: 1, Quantity: 1}, Product: p1},
	), p1)

	theirs, err := f.addresses.Create(context.Background(), 11, address.Input{
		FullName: "Someone Else", Line1: "2 rue B", City: "Paris", PostalCode: "75001", Country: "FR",
	})
	require.NoError(t, err)

	_, err = f.svc.CreateSession(context.Background(), testUser(), SessionRequest{AddressID: &theirs.ID}, "https://shop.example")
	require.ErrorIs(t, err, address.ErrNotFound)
	assert.Zero(t, f.sessions.calls)
}

func TestCreateSession_ProviderFailure(t *testing.T) {
	p1 := testProduct(1, "mug", 1250)
	f := newFixture(cartOf(10,
		cart.Line{Item: cart.Item{ID: 1, UserID: 10, ProductID: 1, Quantity: 1}, Product: p1},
	), p1)
	f.sessions.err = errors.New("api unreachable")

	_, err := f.svc.CreateSession(context.Background(), testUser(), SessionRequest{}, "https://shop.example")

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)

	// The cart is untouched; the shopper can retry.
	lines, err := f.cartRepo.ListByUser(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}
