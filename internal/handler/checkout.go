package handler

import (
	"net/http"

	"github.com/mlevasseur/boutique-api/internal/domain/checkout"
)

type createCheckoutSessionRequest struct {
	AddressID  *int64         `json:"addressId,omitempty"`
	NewAddress *addressFields `json:"newAddress,omitempty"`
}

type createCheckoutSessionResponse struct {
	URL string `json:"url"`
}

func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req createCheckoutSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessReq := checkout.SessionRequest{AddressID: req.AddressID}
	if req.NewAddress != nil {
		if msg := req.NewAddress.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		in := req.NewAddress.toInput()
		sessReq.NewAddress = &in
	}

	// Redirect URLs are anchored on the caller's own origin, not hardcoded.
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = h.cfg.PublicBaseURL
	}

	url, err := h.checkout.CreateSession(r.Context(), currentUser(r), sessReq, origin)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, createCheckoutSessionResponse{URL: url})
}
