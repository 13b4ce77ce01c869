package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID map[int64]*Product
}

func (m *mockProductRepo) ListCategories(_ context.Context) ([]Category, error) { return nil, nil }

func (m *mockProductRepo) ListProducts(_ context.Context, _ ListFilter) ([]Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetProductBySlug(_ context.Context, _ string) (*Product, error) {
	return nil, ErrNotFound
}

func (m *mockProductRepo) GetProductByID(_ context.Context, id int64) (*Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

type mockReviewRepo struct {
	created []*Review
}

func (m *mockReviewRepo) ListByProduct(_ context.Context, _ int64) ([]Review, error) {
	return nil, nil
}

func (m *mockReviewRepo) Create(_ context.Context, r *Review) error {
	m.created = append(m.created, r)
	return nil
}

// --- Tests ---

func TestImageList_Valid(t *testing.T) {
	p := Product{Images: `["a.jpg","b.jpg"]`}
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, p.ImageList())
}

func TestImageList_MalformedYieldsEmpty(t *testing.T) {
	for _, raw := range []string{``, `not json`, `{"oops":1}`, `[1,2,3]`} {
		p := Product{Images: raw}
		assert.Empty(t, p.ImageList(), "raw=%q", raw)
	}
}

func TestFirstImage(t *testing.T) {
	assert.Equal(t, "a.jpg", (&Product{Images: `["a.jpg","b.jpg"]`}).FirstImage())
	assert.Equal(t, "", (&Product{Images: `[]`}).FirstImage())
	assert.Equal(t, "", (&Product{Images: `garbage`}).FirstImage())
}

func TestCreateReview_RatingBounds(t *testing.T) {
	svc := NewReviewService(&mockProductRepo{}, &mockReviewRepo{})

	for _, rating := range []int32{0, -1, 6, 100} {
		err := svc.CreateReview(context.Background(), 10, 1, rating, "")
		require.ErrorIs(t, err, ErrInvalidRating, "rating=%d", rating)
	}
}

func TestCreateReview_UnknownProduct(t *testing.T) {
	svc := NewReviewService(&mockProductRepo{}, &mockReviewRepo{})

	err := svc.CreateReview(context.Background(), 10, 99, 4, "nice")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateReview_Persists(t *testing.T) {
	reviews := &mockReviewRepo{}
	svc := NewReviewService(&mockProductRepo{byID: map[int64]*Product{1: {ID: 1}}}, reviews)

	require.NoError(t, svc.CreateReview(context.Background(), 10, 1, 4, "nice mug"))

	require.Len(t, reviews.created, 1)
	r := reviews.created[0]
	assert.Equal(t, int64(1), r.ProductID)
	assert.Equal(t, int64(10), r.UserID)
	assert.Equal(t, int32(4), r.Rating)
	assert.Equal(t, "nice mug", r.Comment)
}
