package handler

import (
	"net/http"

	"github.com/mlevasseur/boutique-api/internal/domain/cart"
)

type cartLineResponse struct {
	ID        int64            `json:"id"`
	ProductID int64            `json:"productId"`
	Quantity  int32            `json:"quantity"`
	Product   *productResponse `json:"product"`
}

type cartResponse struct {
	Items []cartLineResponse `json:"items"`
	Total int64              `json:"total"`
}

func toCartResponse(lines []cart.Line) cartResponse {
	out := cartResponse{Items: make([]cartLineResponse, 0, len(lines)), Total: cart.Total(lines)}
	for _, l := range lines {
		line := cartLineResponse{
			ID:        l.Item.ID,
			ProductID: l.Item.ProductID,
			Quantity:  l.Item.Quantity,
		}
		if l.Product != nil {
			p := toProductResponse(l.Product)
			line.Product = &p
		}
		out.Items = append(out.Items, line)
	}
	return out
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	lines, err := h.carts.View(r.Context(), currentUser(r).ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(lines))
}

type addCartItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	req := addCartItemRequest{Quantity: 1}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.carts.AddItem(r.Context(), currentUser(r).ID, req.ProductID, req.Quantity); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type updateCartItemRequest struct {
	Quantity int32 `json:"quantity"`
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid cart item id")
		return
	}
	var req updateCartItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.carts.SetQuantity(r.Context(), currentUser(r).ID, id, req.Quantity); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid cart item id")
		return
	}
	if err := h.carts.RemoveItem(r.Context(), currentUser(r).ID, id); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), currentUser(r).ID); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
