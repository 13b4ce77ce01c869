package catalog

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrInvalidRating indicates a review rating outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// ReviewService validates and records product reviews.
type ReviewService struct {
	products Repository
	reviews  ReviewRepository
}

// NewReviewService creates a ReviewService.
func NewReviewService(products Repository, reviews ReviewRepository) *ReviewService {
	return &ReviewService{products: products, reviews: reviews}
}

// ListReviews returns all reviews for a product, newest first.
func (s *ReviewService) ListReviews(ctx context.Context, productID int64) ([]Review, error) {
	return s.reviews.ListByProduct(ctx, productID)
}

// CreateReview records a review after checking the rating bounds and that the
// product exists.
func (s *ReviewService) CreateReview(ctx context.Context, userID, productID int64, rating int32, comment string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	if _, err := s.products.GetProductByID(ctx, productID); err != nil {
		return errors.Wrap(err, "get product")
	}
	r := &Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return errors.Wrap(err, "create review")
	}
	return nil
}
