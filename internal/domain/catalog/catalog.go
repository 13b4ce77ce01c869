// Package catalog holds the product, category, and review types plus their
// persistence contracts. Catalog reads are plain CRUD; the only behavior here
// is the lenient decoding of the JSON images column.
package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the requested catalog record does not exist.
var ErrNotFound = errors.New("not found")

// Category groups products for browsing.
type Category struct {
	ID        int64
	Name      string
	Slug      string
	Image     string
	CreatedAt time.Time
}

// Product is a sellable item. Price is in integer minor currency units; no
// floating-point money anywhere. Images is the raw JSON-encoded URL list as
// stored, decoded on demand via ImageList.
type Product struct {
	ID          int64
	CategoryID  int64
	Name        string
	Slug        string
	Description string
	Price       int64
	Images      string
	Stock       int32
	Rating      decimal.Decimal
	Featured    bool
	New         bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ImageList decodes the JSON images column. Malformed data yields an empty
// list rather than an error: historical rows are known to contain junk and a
// broken gallery must not break product display or checkout.
func (p *Product) ImageList() []string {
	var urls []string
	if err := json.Unmarshal([]byte(p.Images), &urls); err != nil {
		return nil
	}
	return urls
}

// FirstImage returns the first image URL, or "" when none decode.
func (p *Product) FirstImage() string {
	if urls := p.ImageList(); len(urls) > 0 {
		return urls[0]
	}
	return ""
}

// ListFilter narrows a product listing. Nil fields match everything.
type ListFilter struct {
	CategoryID *int64
	Featured   *bool
	New        *bool
}

// Repository defines catalog read operations.
type Repository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListProducts(ctx context.Context, f ListFilter) ([]Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*Product, error)
	GetProductByID(ctx context.Context, id int64) (*Product, error)
}

// Review is a shopper's rating of a product. ReviewerName is joined in for
// display and not stored on the row.
type Review struct {
	ID           int64
	ProductID    int64
	UserID       int64
	Rating       int32
	Comment      string
	CreatedAt    time.Time
	ReviewerName string
}

// ReviewRepository defines review persistence. Create must also refresh the
// product's rating aggregate.
type ReviewRepository interface {
	ListByProduct(ctx context.Context, productID int64) ([]Review, error)
	Create(ctx context.Context, r *Review) error
}
