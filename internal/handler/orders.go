package handler

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/enum"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/middleware"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/reconcile"
)

// maxUploadBytes caps the in-memory portion of an image upload.
const maxUploadBytes = 10 << 20

// OrderFetcher pulls the canonical order from upstream into the cache.
// Satisfied by *reconcile.Reconciler.
type OrderFetcher interface {
	Refetch(ctx context.Context, id string) (crm.Order, error)
}

// ImageUploader is the slice of the CRM client used by the image
// endpoint.
type ImageUploader interface {
	UploadItemImage(ctx context.Context, orderID string, itemIndex int, filename string, r io.Reader) (string, error)
}

// OrderHandler serves the locally cached orders and relays line-item
// image uploads to the CRM.
type OrderHandler struct {
	cache    *reconcile.Cache
	fetcher  OrderFetcher
	uploader ImageUploader
	notifier reconcile.Notifier
}

func NewOrderHandler(cache *reconcile.Cache, fetcher OrderFetcher, uploader ImageUploader, notifier reconcile.Notifier) *OrderHandler {
	return &OrderHandler{cache: cache, fetcher: fetcher, uploader: uploader, notifier: notifier}
}

// RegisterRoutes registers order read endpoints on the given Chi
// router. Expected to be mounted at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/items/{index}/image", h.UploadImage)
}

// List handles GET /orders from the local cache, newest first. Vendors
// only see their own orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orders := h.cache.List()
	if claims.Role == enum.RoleVendor {
		scoped := make([]crm.Order, 0, len(orders))
		for _, o := range orders {
			if o.Vendor.ID == claims.VendorID {
				scoped = append(scoped, o)
			}
		}
		orders = scoped
	}
	if orders == nil {
		orders = []crm.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// Get handles GET /orders/{id}. A cache miss falls through to the CRM.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	id := chi.URLParam(r, "id")
	order, ok := h.cache.Get(id)
	if !ok {
		var err error
		order, err = h.fetcher.Refetch(r.Context(), id)
		if err != nil {
			if errors.Is(err, crm.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
				return
			}
			log.Printf("ERROR: fetch order %s: %v", id, err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "order lookup failed"})
			return
		}
	}

	if claims.Role == enum.RoleVendor && order.Vendor.ID != claims.VendorID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UploadImage handles POST /orders/{id}/items/{index}/image. The image
// travels through to the CRM unchanged; on success the refreshed order
// is broadcast so open grids pick up the new image URL.
func (h *OrderHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	id := chi.URLParam(r, "id")
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || idx < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item index"})
		return
	}

	order, ok := h.cache.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	if claims.Role == enum.RoleVendor && order.Vendor.ID != claims.VendorID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	if idx >= len(order.Items) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item index"})
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image file is required"})
		return
	}
	defer file.Close()

	url, err := h.uploader.UploadItemImage(r.Context(), id, idx, header.Filename, file)
	if err != nil {
		log.Printf("ERROR: upload item image for order %s: %v", id, err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "image upload failed"})
		return
	}

	updated, err := h.fetcher.Refetch(r.Context(), id)
	if err != nil {
		// The upload landed; the stale cache entry corrects itself on
		// the next upstream event.
		log.Printf("ERROR: refetch after image upload for order %s: %v", id, err)
	} else if h.notifier != nil {
		h.notifier.OrderChanged(enum.EventOrderUpdated, &updated)
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
