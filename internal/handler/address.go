package handler

import (
	"net/http"

	"github.com/mlevasseur/boutique-api/internal/domain/address"
)

type addressFields struct {
	FullName   string `json:"fullName"`
	Line1      string `json:"addressLine1"`
	Line2      string `json:"addressLine2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	IsDefault  bool   `json:"isDefault"`
}

func (f addressFields) toInput() address.Input {
	return address.Input{
		FullName:   f.FullName,
		Line1:      f.Line1,
		Line2:      f.Line2,
		City:       f.City,
		PostalCode: f.PostalCode,
		Country:    f.Country,
		Phone:      f.Phone,
		Default:    f.IsDefault,
	}
}

func (f addressFields) validate() string {
	switch {
	case f.FullName == "":
		return "fullName is required"
	case f.Line1 == "":
		return "addressLine1 is required"
	case f.City == "":
		return "city is required"
	case f.PostalCode == "":
		return "postalCode is required"
	case f.Country == "":
		return "country is required"
	}
	return ""
}

type addressResponse struct {
	ID int64 `json:"id"`
	addressFields
}

func toAddressResponse(a *address.Address) addressResponse {
	return addressResponse{
		ID: a.ID,
		addressFields: addressFields{
			FullName:   a.FullName,
			Line1:      a.Line1,
			Line2:      a.Line2,
			City:       a.City,
			PostalCode: a.PostalCode,
			Country:    a.Country,
			Phone:      a.Phone,
			IsDefault:  a.Default,
		},
	}
}

func (h *Handler) listAddresses(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.addresses.List(r.Context(), currentUser(r).ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]addressResponse, 0, len(addresses))
	for i := range addresses {
		out = append(out, toAddressResponse(&addresses[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createAddress(w http.ResponseWriter, r *http.Request) {
	var req addressFields
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	a, err := h.addresses.Create(r.Context(), currentUser(r).ID, req.toInput())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAddressResponse(a))
}

func (h *Handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid address id")
		return
	}
	var req addressFields
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.addresses.Update(r.Context(), currentUser(r).ID, id, req.toInput()); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid address id")
		return
	}
	if err := h.addresses.Delete(r.Context(), currentUser(r).ID, id); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
