// Package address manages shoppers' saved shipping addresses. At most one
// address per user carries the default flag; the mutations enforce that, not
// a database constraint.
package address

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound covers a missing address and an address owned by another user.
var ErrNotFound = errors.New("address not found")

// Address is a saved shipping destination.
type Address struct {
	ID         int64
	UserID     int64
	FullName   string
	Line1      string
	Line2      string
	City       string
	PostalCode string
	Country    string
	Phone      string
	Default    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Input is the mutable field set of an address.
type Input struct {
	FullName   string
	Line1      string
	Line2      string
	City       string
	PostalCode string
	Country    string
	Phone      string
	Default    bool
}

// Repository defines address persistence.
type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]Address, error)
	Get(ctx context.Context, id int64) (*Address, error)
	Create(ctx context.Context, userID int64, in Input) (*Address, error)
	Update(ctx context.Context, id int64, in Input) error
	Delete(ctx context.Context, id int64) error
	// ClearDefault unsets the default flag on every address of the user.
	ClearDefault(ctx context.Context, userID int64) error
}

// Service applies ownership and default-flag policy over the repository.
type Service struct {
	addresses Repository
}

// NewService creates an address Service.
func NewService(addresses Repository) *Service {
	return &Service{addresses: addresses}
}

// List returns the user's addresses, default first.
func (s *Service) List(ctx context.Context, userID int64) ([]Address, error) {
	return s.addresses.ListByUser(ctx, userID)
}

// Create saves a new address. When the input is flagged default, every other
// default for the user is cleared first so exactly one remains.
func (s *Service) Create(ctx context.Context, userID int64, in Input) (*Address, error) {
	if in.Default {
		if err := s.addresses.ClearDefault(ctx, userID); err != nil {
			return nil, errors.Wrap(err, "clear default")
		}
	}
	a, err := s.addresses.Create(ctx, userID, in)
	if err != nil {
		return nil, errors.Wrap(err, "create address")
	}
	return a, nil
}

// Update overwrites an owned address, enforcing default uniqueness the same
// way Create does.
func (s *Service) Update(ctx context.Context, userID, id int64, in Input) error {
	if _, err := s.requireOwned(ctx, userID, id); err != nil {
		return err
	}
	if in.Default {
		if err := s.addresses.ClearDefault(ctx, userID); err != nil {
			return errors.Wrap(err, "clear default")
		}
	}
	return s.addresses.Update(ctx, id, in)
}

// Delete removes an owned address.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.requireOwned(ctx, userID, id); err != nil {
		return err
	}
	return s.addresses.Delete(ctx, id)
}

// GetOwned returns the address only when it belongs to the user; any other
// outcome is ErrNotFound.
func (s *Service) GetOwned(ctx context.Context, userID, id int64) (*Address, error) {
	return s.requireOwned(ctx, userID, id)
}

// FindOrCreate matches an existing address of the user by (line1, postal
// code) and returns it, or saves the input as a new non-default address. The
// match is a duplicate-avoidance heuristic for repeat customers, not a
// uniqueness guarantee: two distinct addresses sharing those fields collapse.
func (s *Service) FindOrCreate(ctx context.Context, userID int64, in Input) (*Address, error) {
	existing, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}
	for i := range existing {
		if existing[i].Line1 == in.Line1 && existing[i].PostalCode == in.PostalCode {
			return &existing[i], nil
		}
	}
	in.Default = false
	a, err := s.addresses.Create(ctx, userID, in)
	if err != nil {
		return nil, errors.Wrap(err, "create address")
	}
	return a, nil
}

func (s *Service) requireOwned(ctx context.Context, userID, id int64) (*Address, error) {
	a, err := s.addresses.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get address")
	}
	if a.UserID != userID {
		return nil, ErrNotFound
	}
	return a, nil
}
