package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mlevasseur/boutique-api/internal/domain/catalog"
)

type categoryResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Image string `json:"image,omitempty"`
}

type productResponse struct {
	ID          int64     `json:"id"`
	CategoryID  int64     `json:"categoryId,omitempty"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	Images      []string  `json:"images"`
	Stock       int32     `json:"stock"`
	Rating      string    `json:"rating"`
	Featured    bool      `json:"featured"`
	IsNew       bool      `json:"isNew"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toProductResponse(p *catalog.Product) productResponse {
	images := p.ImageList()
	if images == nil {
		images = []string{}
	}
	return productResponse{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price,
		Images:      images,
		Stock:       p.Stock,
		Rating:      p.Rating.String(),
		Featured:    p.Featured,
		IsNew:       p.New,
		CreatedAt:   p.CreatedAt,
	}
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{ID: c.ID, Name: c.Name, Slug: c.Slug, Image: c.Image})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	var f catalog.ListFilter
	q := r.URL.Query()
	if v := q.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		f.CategoryID = &id
	}
	if v := q.Get("featured"); v != "" {
		b := v == "true"
		f.Featured = &b
	}
	if v := q.Get("new"); v != "" {
		b := v == "true"
		f.New = &b
	}

	products, err := h.catalog.ListProducts(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetProductBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

type reviewResponse struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"productId"`
	Rating       int32     `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	ReviewerName string    `json:"reviewerName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)
	if err != nil || productID < 1 {
		writeError(w, http.StatusBadRequest, "invalid product_id")
		return
	}
	reviews, err := h.reviews.ListReviews(r.Context(), productID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]reviewResponse, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, reviewResponse{
			ID:           rv.ID,
			ProductID:    rv.ProductID,
			Rating:       rv.Rating,
			Comment:      rv.Comment,
			ReviewerName: rv.ReviewerName,
			CreatedAt:    rv.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type createReviewRequest struct {
	ProductID int64  `json:"productId"`
	Rating    int32  `json:"rating"`
	Comment   string `json:"comment"`
}

func (h *Handler) createReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user := currentUser(r)
	if err := h.reviews.CreateReview(r.Context(), user.ID, req.ProductID, req.Rating, req.Comment); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}
