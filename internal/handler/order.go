package handler

import (
	"net/http"
	"time"

	"github.com/mlevasseur/boutique-api/internal/domain/order"
)

type orderResponse struct {
	ID                int64     `json:"id"`
	OrderNumber       string    `json:"orderNumber"`
	Status            string    `json:"status"`
	TotalAmount       int64     `json:"totalAmount"`
	ShippingAddressID *int64    `json:"shippingAddressId,omitempty"`
	TrackingNumber    string    `json:"trackingNumber,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

type orderItemResponse struct {
	ID              int64  `json:"id"`
	ProductID       int64  `json:"productId"`
	ProductName     string `json:"productName"`
	ProductImage    string `json:"productImage,omitempty"`
	Quantity        int32  `json:"quantity"`
	PriceAtPurchase int64  `json:"priceAtPurchase"`
}

func toOrderResponse(o *order.Order) orderResponse {
	return orderResponse{
		ID:                o.ID,
		OrderNumber:       o.Number,
		Status:            string(o.Status),
		TotalAmount:       o.TotalAmount,
		ShippingAddressID: o.ShippingAddressID,
		TrackingNumber:    o.TrackingNumber,
		CreatedAt:         o.CreatedAt,
	}
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context(), currentUser(r).ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	o, items, err := h.orders.GetOrder(r.Context(), currentUser(r).ID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	itemsOut := make([]orderItemResponse, 0, len(items))
	for _, item := range items {
		itemsOut = append(itemsOut, orderItemResponse{
			ID:              item.ID,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			ProductImage:    item.ProductImage,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"order": toOrderResponse(o),
		"items": itemsOut,
	})
}

type updateOrderStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req updateOrderStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.orders.UpdateStatus(r.Context(), id, order.Status(req.Status), req.TrackingNumber); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
