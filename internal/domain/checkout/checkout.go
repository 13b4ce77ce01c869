// Package checkout implements the two halves of the payment workflow: the
// session initiator that turns a live cart into a Stripe-hosted checkout, and
// the fulfiller that materializes an order when Stripe confirms the charge.
//
// No order is ever created at session time. The session only carries intent
// (line items plus the user's identity as metadata); the order exists once
// the asynchronous webhook confirms payment, and never before.
package checkout

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/stripe/stripe-go/v79"

	"github.com/mlevasseur/boutique-api/internal/domain/address"
	"github.com/mlevasseur/boutique-api/internal/domain/auth"
	"github.com/mlevasseur/boutique-api/internal/domain/cart"
)

// ErrEmptyCart indicates checkout was initiated with nothing to buy. No
// provider call is made in that case.
var ErrEmptyCart = errors.New("cart is empty")

// ProviderError wraps any failure from the payment provider during session
// creation. The cart is untouched on this path; the caller may simply retry.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// SessionCreator creates a hosted checkout session. *session.Client from
// stripe-go satisfies it directly.
type SessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// Config holds the fixed payment-flow settings. This is a single-currency
// shop with a free-shipping policy.
type Config struct {
	// Currency is the lowercase ISO code every session is priced in.
	Currency string
	// AllowedCountries restricts provider-side address collection when no
	// shipping destination is known at session time.
	AllowedCountries []string
	// SuccessPath and CancelPath are appended to the request origin to form
	// the redirect URLs.
	SuccessPath string
	CancelPath  string
}

// SessionRequest selects the shipping destination for a checkout. At most one
// of AddressID and NewAddress is set; when neither is, the provider collects
// an address during its hosted flow.
type SessionRequest struct {
	AddressID  *int64
	NewAddress *address.Input
}

// Service builds provider checkout sessions from the shopper's live cart.
type Service struct {
	carts     *cart.Service
	addresses *address.Service
	sessions  SessionCreator
	cfg       Config
}

// NewService creates a checkout Service.
func NewService(carts *cart.Service, addresses *address.Service, sessions SessionCreator, cfg Config) *Service {
	if cfg.SuccessPath == "" {
		cfg.SuccessPath = "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
	}
	if cfg.CancelPath == "" {
		cfg.CancelPath = "/checkout"
	}
	return &Service{carts: carts, addresses: addresses, sessions: sessions, cfg: cfg}
}

// CreateSession reads the user's cart, builds a provider session request, and
// returns the hosted checkout URL. origin is the scheme+host of the incoming
// request and anchors the redirect URLs.
func (s *Service) CreateSession(ctx context.Context, user auth.User, req SessionRequest, origin string) (string, error) {
	lines, err := s.carts.View(ctx, user.ID)
	if err != nil {
		return "", errors.Wrap(err, "load cart")
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(lines))
	for _, l := range lines {
		// A product deleted after being carted yields a nil join; there is
		// nothing chargeable on that line.
		if l.Product == nil {
			continue
		}
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(l.Product.Name),
		}
		if l.Product.Description != "" {
			productData.Description = stripe.String(l.Product.Description)
		}
		if img := l.Product.FirstImage(); img != "" {
			productData.Images = stripe.StringSlice([]string{img})
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(s.cfg.Currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(l.Product.Price),
			},
			Quantity: stripe.Int64(int64(l.Item.Quantity)),
		})
	}
	if len(lineItems) == 0 {
		return "", ErrEmptyCart
	}

	shipping, err := s.resolveShipping(ctx, user.ID, req)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes:  stripe.StringSlice([]string{"card"}),
		LineItems:           lineItems,
		SuccessURL:          stripe.String(origin + s.cfg.SuccessPath),
		CancelURL:           stripe.String(origin + s.cfg.CancelPath),
		ClientReferenceID:   stripe.String(fmt.Sprintf("%d", user.ID)),
		AllowPromotionCodes: stripe.Bool(true),
	}
	if user.Email != "" {
		params.CustomerEmail = stripe.String(user.Email)
	}
	// The metadata is the only linkage the asynchronous webhook has back to a
	// local user; Stripe echoes it verbatim on the completed event.
	params.AddMetadata("user_id", fmt.Sprintf("%d", user.ID))
	params.AddMetadata("customer_email", user.Email)
	params.AddMetadata("customer_name", user.Name)

	if shipping != nil {
		// Destination already known: attach the zero-cost shipping option.
		params.ShippingOptions = []*stripe.CheckoutSessionShippingOptionParams{{
			ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
				Type:        stripe.String("fixed_amount"),
				DisplayName: stripe.String("Free shipping"),
				FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
					Amount:   stripe.Int64(0),
					Currency: stripe.String(s.cfg.Currency),
				},
			},
		}}
	} else {
		// Let Stripe collect the address, restricted to shippable countries.
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(s.cfg.AllowedCountries),
		}
	}

	sess, err := s.sessions.New(params)
	if err != nil {
		return "", &ProviderError{Err: err}
	}
	return sess.URL, nil
}

// resolveShipping picks the shipping destination for the session. A saved
// address id must belong to the requesting user; foreign ids are rejected as
// not found rather than silently ignored.
func (s *Service) resolveShipping(ctx context.Context, userID int64, req SessionRequest) (*address.Input, error) {
	switch {
	case req.AddressID != nil:
		a, err := s.addresses.GetOwned(ctx, userID, *req.AddressID)
		if err != nil {
			return nil, err
		}
		return &address.Input{
			FullName:   a.FullName,
			Line1:      a.Line1,
			Line2:      a.Line2,
			City:       a.City,
			PostalCode: a.PostalCode,
			Country:    a.Country,
			Phone:      a.Phone,
		}, nil
	case req.NewAddress != nil:
		return req.NewAddress, nil
	default:
		return nil, nil
	}
}
