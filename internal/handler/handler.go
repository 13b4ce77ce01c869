// Package handler exposes the storefront HTTP API: catalog reads, the
// auth-scoped cart/address/order RPCs, checkout session creation, and the
// Stripe webhook endpoint.
package handler

import (
	"context"
	"net/http"

	"github.com/stripe/stripe-go/v79"

	"github.com/mlevasseur/boutique-api/internal/domain/address"
	"github.com/mlevasseur/boutique-api/internal/domain/auth"
	"github.com/mlevasseur/boutique-api/internal/domain/cart"
	"github.com/mlevasseur/boutique-api/internal/domain/catalog"
	"github.com/mlevasseur/boutique-api/internal/domain/checkout"
	"github.com/mlevasseur/boutique-api/internal/domain/order"
)

// Fulfiller materializes an order from a completed checkout session.
type Fulfiller interface {
	FulfillSession(ctx context.Context, sess *stripe.CheckoutSession) error
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// WebhookSecret is the Stripe endpoint signing secret.
	WebhookSecret string
	// SessionPepper keys the HMAC applied to bearer session tokens.
	SessionPepper []byte
	// PublicBaseURL anchors checkout redirect URLs when the request carries
	// no Origin header.
	PublicBaseURL string
}

// Handler implements the HTTP API, delegating business logic to the injected
// domain services.
type Handler struct {
	cfg Config

	catalog   catalog.Repository
	reviews   *catalog.ReviewService
	carts     *cart.Service
	addresses *address.Service
	orders    *order.Service
	checkout  *checkout.Service
	fulfiller Fulfiller
	sessions  auth.Repository
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	catalogRepo catalog.Repository,
	reviews *catalog.ReviewService,
	carts *cart.Service,
	addresses *address.Service,
	orders *order.Service,
	checkoutSvc *checkout.Service,
	fulfiller Fulfiller,
	sessions auth.Repository,
) *Handler {
	return &Handler{
		cfg:       cfg,
		catalog:   catalogRepo,
		reviews:   reviews,
		carts:     carts,
		addresses: addresses,
		orders:    orders,
		checkout:  checkoutSvc,
		fulfiller: fulfiller,
		sessions:  sessions,
	}
}

// Register mounts every API route on the mux. The webhook route consumes the
// raw request body and must never sit behind body-parsing middleware.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/categories", h.listCategories)
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{slug}", h.getProduct)
	mux.HandleFunc("GET /api/reviews", h.listReviews)
	mux.HandleFunc("POST /api/reviews", h.requireUser(h.createReview))

	mux.HandleFunc("GET /api/cart", h.requireUser(h.getCart))
	mux.HandleFunc("POST /api/cart/items", h.requireUser(h.addCartItem))
	mux.HandleFunc("PATCH /api/cart/items/{id}", h.requireUser(h.updateCartItem))
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.requireUser(h.removeCartItem))
	mux.HandleFunc("DELETE /api/cart", h.requireUser(h.clearCart))

	mux.HandleFunc("GET /api/addresses", h.requireUser(h.listAddresses))
	mux.HandleFunc("POST /api/addresses", h.requireUser(h.createAddress))
	mux.HandleFunc("PUT /api/addresses/{id}", h.requireUser(h.updateAddress))
	mux.HandleFunc("DELETE /api/addresses/{id}", h.requireUser(h.deleteAddress))

	mux.HandleFunc("GET /api/orders", h.requireUser(h.listOrders))
	mux.HandleFunc("GET /api/orders/{id}", h.requireUser(h.getOrder))
	mux.HandleFunc("PATCH /api/admin/orders/{id}", h.requireAdmin(h.updateOrderStatus))

	mux.HandleFunc("POST /api/checkout/session", h.requireUser(h.createCheckoutSession))
	mux.HandleFunc("POST /api/stripe/webhook", h.handleWebhook)
}
