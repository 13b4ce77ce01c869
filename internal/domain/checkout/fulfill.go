package checkout

import (
	"context"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"github.com/mlevasseur/boutique-api/internal/domain/address"
	"github.com/mlevasseur/boutique-api/internal/domain/cart"
	"github.com/mlevasseur/boutique-api/internal/domain/order"
)

// Fulfiller materializes an order from a completed provider checkout. It is
// driven by the webhook handler, never by the browser flow.
type Fulfiller struct {
	carts     *cart.Service
	addresses *address.Service
	orders    order.Repository
}

// NewFulfiller creates a Fulfiller.
func NewFulfiller(carts *cart.Service, addresses *address.Service, orders order.Repository) *Fulfiller {
	return &Fulfiller{carts: carts, addresses: addresses, orders: orders}
}

// FulfillSession turns a completed checkout session into one order plus item
// rows, then clears the cart as the explicit last step.
//
// The cart is re-read at settlement time rather than snapshotted at session
// creation; a cart mutated in between changes the order. Accepted limitation.
//
// Clearing the cart last doubles as the idempotency guard: a re-delivered
// event finds an empty cart and drops through without a second order. Any
// returned error must surface as a failure response so the provider retries.
func (f *Fulfiller) FulfillSession(ctx context.Context, sess *stripe.CheckoutSession) error {
	lg := zctx.From(ctx).With(zap.String("session_id", sess.ID))

	userID, ok := sessionUserID(sess)
	if !ok {
		// Cannot identify the beneficiary; guessing would credit the wrong
		// account. Drop, do not fail, or the provider retries forever.
		lg.Error("Checkout session missing user_id metadata, dropping event")
		return nil
	}
	lg = lg.With(zap.Int64("user_id", userID))

	lines, err := f.carts.View(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "load cart")
	}

	items := make([]order.Item, 0, len(lines))
	for _, l := range lines {
		if l.Product == nil {
			continue
		}
		items = append(items, order.Item{
			ProductID:       l.Product.ID,
			ProductName:     l.Product.Name,
			ProductImage:    l.Product.FirstImage(),
			Quantity:        l.Item.Quantity,
			PriceAtPurchase: l.Product.Price,
		})
	}
	if len(items) == 0 {
		// Either the cart was already cleared by a prior delivery of this
		// event, or there was never anything to materialize. No-op success.
		lg.Info("Cart empty at settlement, nothing to materialize")
		return nil
	}

	shippingAddressID, err := f.resolveShippingAddress(ctx, userID, sess)
	if err != nil {
		return errors.Wrap(err, "resolve shipping address")
	}

	o := &order.Order{
		UserID:            userID,
		Number:            order.NewNumber(),
		Status:            order.StatusProcessing,
		TotalAmount:       sess.AmountTotal,
		ShippingAddressID: shippingAddressID,
	}
	if sess.PaymentIntent != nil {
		o.PaymentRef = sess.PaymentIntent.ID
	}

	orderID, err := f.orders.Create(ctx, o, items)
	if err != nil {
		return errors.Wrap(err, "create order")
	}

	// Last step on purpose: once the cart is empty, replays are no-ops.
	if err := f.carts.Clear(ctx, userID); err != nil {
		return errors.Wrap(err, "clear cart")
	}

	lg.Info("Order created",
		zap.Int64("order_id", orderID),
		zap.String("order_number", o.Number),
		zap.Int64("total_amount", o.TotalAmount),
		zap.Int("items", len(items)),
	)
	return nil
}

// resolveShippingAddress maps the provider-collected shipping details onto a
// saved address, matching by (line1, postal code) before inserting to avoid
// duplicate rows for repeat customers. Sessions without shipping details
// yield a nil address id.
func (f *Fulfiller) resolveShippingAddress(ctx context.Context, userID int64, sess *stripe.CheckoutSession) (*int64, error) {
	details := sess.ShippingDetails
	if details == nil || details.Address == nil {
		return nil, nil
	}

	fullName := details.Name
	if fullName == "" {
		fullName = sess.Metadata["customer_email"]
	}
	if fullName == "" {
		fullName = "Customer"
	}

	a, err := f.addresses.FindOrCreate(ctx, userID, address.Input{
		FullName:   fullName,
		Line1:      details.Address.Line1,
		Line2:      details.Address.Line2,
		City:       details.Address.City,
		PostalCode: details.Address.PostalCode,
		Country:    details.Address.Country,
		Phone:      details.Phone,
	})
	if err != nil {
		return nil, err
	}
	return &a.ID, nil
}

// sessionUserID extracts the user id echoed back in session metadata.
func sessionUserID(sess *stripe.CheckoutSession) (int64, bool) {
	raw, ok := sess.Metadata["user_id"]
	if !ok || raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
