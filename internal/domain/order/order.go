// Package order holds the immutable order record and its line items. Orders
// are created exactly once per confirmed checkout; item name, image, and
// price are snapshots taken at materialization time so later product edits or
// deletions never alter order history.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for order operations.
var (
	// ErrNotFound covers a missing order and an order owned by another user.
	ErrNotFound = errors.New("order not found")

	ErrInvalidStatus = errors.New("invalid order status")
)

// Status is the fulfillment state of an order.
type Status string

// Order statuses.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Order is one confirmed purchase. TotalAmount is the provider's
// authoritative charged amount in minor units and may legitimately differ
// from the sum of item prices (promotions, shipping).
type Order struct {
	ID                int64
	UserID            int64
	Number            string
	Status            Status
	TotalAmount       int64
	ShippingAddressID *int64
	PaymentRef        string
	TrackingNumber    string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Item is one order line with snapshotted product fields.
type Item struct {
	ID              int64
	OrderID         int64
	ProductID       int64
	ProductName     string
	ProductImage    string
	Quantity        int32
	PriceAtPurchase int64
}

// Repository defines order persistence. Create must insert the order row and
// all item rows in one transaction: either everything exists or nothing does.
type Repository interface {
	Create(ctx context.Context, o *Order, items []Item) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	Get(ctx context.Context, id int64) (*Order, error)
	ListItems(ctx context.Context, orderID int64) ([]Item, error)
	UpdateStatus(ctx context.Context, id int64, status Status, trackingNumber string) error
}

// Service scopes order reads to their owner.
type Service struct {
	orders Repository
}

// NewService creates an order Service.
func NewService(orders Repository) *Service {
	return &Service{orders: orders}
}

// ListOrders returns the user's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, userID int64) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// GetOrder returns an owned order with its items. Foreign or missing orders
// both yield ErrNotFound.
func (s *Service) GetOrder(ctx context.Context, userID, orderID int64) (*Order, []Item, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, errors.Wrap(err, "get order")
	}
	if o.UserID != userID {
		return nil, nil, ErrNotFound
	}
	items, err := s.orders.ListItems(ctx, orderID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "list order items")
	}
	return o, items, nil
}

// UpdateStatus transitions any order's status, optionally attaching a tracking
// number. Not owner-scoped: this is the back-office operation.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, status Status, trackingNumber string) error {
	switch status {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
	default:
		return ErrInvalidStatus
	}
	return s.orders.UpdateStatus(ctx, orderID, status, trackingNumber)
}
