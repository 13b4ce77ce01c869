package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/mlevasseur/boutique-api/internal/domain/address"
	"github.com/mlevasseur/boutique-api/internal/domain/auth"
	"github.com/mlevasseur/boutique-api/internal/domain/cart"
	"github.com/mlevasseur/boutique-api/internal/domain/catalog"
	"github.com/mlevasseur/boutique-api/internal/domain/checkout"
	"github.com/mlevasseur/boutique-api/internal/domain/order"
)

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

// decodeBody parses a JSON request body into v, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// respondError maps domain errors onto HTTP responses. Ownership violations
// come through as the not-found sentinels and map to 404, never 403, so the
// existence of other users' records does not leak.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var provErr *checkout.ProviderError
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, address.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, catalog.ErrInvalidRating),
		errors.Is(err, order.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "cart is empty")
	case errors.As(err, &provErr):
		zctx.From(r.Context()).Error("Checkout session creation failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "payment initiation failed")
	case errors.Is(err, auth.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		zctx.From(r.Context()).Error("Internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
