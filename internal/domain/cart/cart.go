// Package cart implements the shopper's cart: an aggregated view joining cart
// rows with live product data, and the mutations on it. Quantity increments
// happen at the database row level so concurrent add-to-cart calls for the
// same (user, product) pair cannot lose updates.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/mlevasseur/boutique-api/internal/domain/catalog"
)

// Sentinel errors for cart mutations.
var (
	// ErrItemNotFound covers both a missing row and a row owned by another
	// user. The two are indistinguishable to the caller on purpose.
	ErrItemNotFound = errors.New("cart item not found")

	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// Item is one cart row. A user has at most one row per product.
type Item struct {
	ID        int64
	UserID    int64
	ProductID int64
	Quantity  int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Line pairs a cart row with its product. Product is nil when the product was
// deleted after being added to the cart; callers must tolerate that.
type Line struct {
	Item    Item
	Product *catalog.Product
}

// Total sums price*quantity over lines with a live product, in minor units.
func Total(lines []Line) int64 {
	var total int64
	for _, l := range lines {
		if l.Product == nil {
			continue
		}
		total += l.Product.Price * int64(l.Item.Quantity)
	}
	return total
}

// Repository defines cart persistence. Add must be an atomic upsert whose
// increment is computed in the database (quantity = quantity + delta), not
// read-modify-write in the application.
type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]Line, error)
	GetItem(ctx context.Context, id int64) (*Item, error)
	Add(ctx context.Context, userID, productID int64, quantity int32) error
	SetQuantity(ctx context.Context, id int64, quantity int32) error
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context, userID int64) error
}

// Service applies cart policy on top of the repository: ownership scoping,
// the delete-on-zero rule, and product existence checks.
type Service struct {
	items    Repository
	products catalog.Repository
}

// NewService creates a cart Service.
func NewService(items Repository, products catalog.Repository) *Service {
	return &Service{items: items, products: products}
}

// View returns the user's cart lines, left-joined with current product data.
func (s *Service) View(ctx context.Context, userID int64) ([]Line, error) {
	lines, err := s.items.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart")
	}
	return lines, nil
}

// AddItem adds quantity of a product to the user's cart, incrementing the
// existing row when one exists.
func (s *Service) AddItem(ctx context.Context, userID, productID int64, quantity int32) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if _, err := s.products.GetProductByID(ctx, productID); err != nil {
		return errors.Wrap(err, "get product")
	}
	if err := s.items.Add(ctx, userID, productID, quantity); err != nil {
		return errors.Wrap(err, "add cart item")
	}
	return nil
}

// SetQuantity overwrites an item's quantity. A quantity of zero or less
// deletes the row; that is the policy, not an error.
func (s *Service) SetQuantity(ctx context.Context, userID, itemID int64, quantity int32) error {
	if err := s.requireOwned(ctx, userID, itemID); err != nil {
		return err
	}
	if quantity <= 0 {
		return s.items.Delete(ctx, itemID)
	}
	return s.items.SetQuantity(ctx, itemID, quantity)
}

// RemoveItem deletes a single cart row.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID int64) error {
	if err := s.requireOwned(ctx, userID, itemID); err != nil {
		return err
	}
	return s.items.Delete(ctx, itemID)
}

// Clear deletes every cart row for the user.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	return s.items.Clear(ctx, userID)
}

// requireOwned resolves an item and maps both absence and foreign ownership
// to ErrItemNotFound.
func (s *Service) requireOwned(ctx context.Context, userID, itemID int64) error {
	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}
		return errors.Wrap(err, "get cart item")
	}
	if item.UserID != userID {
		return ErrItemNotFound
	}
	return nil
}
