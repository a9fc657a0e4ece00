package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/catalog"
)

// ProductHandler serves the product catalog snapshot for item pickers.
type ProductHandler struct {
	catalog *catalog.Cache
}

func NewProductHandler(c *catalog.Cache) *ProductHandler {
	return &ProductHandler{catalog: c}
}

// RegisterRoutes registers product endpoints on the given Chi router.
// Expected to be mounted at /products.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// List handles GET /products. With ?q= the catalog is searched and
// ranked; without it the whole snapshot comes back. ?limit= caps the
// ranked list.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if query == "" && limit <= 0 {
		writeJSON(w, http.StatusOK, h.catalog.Products())
		return
	}
	writeJSON(w, http.StatusOK, h.catalog.Search(query, limit))
}
