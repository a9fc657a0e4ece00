package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/auth"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/enum"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/fieldcfg"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/grid"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/middleware"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/reconcile"
)

// GridHandler commits single-cell edits from the orders grid. Each
// request is one self-contained edit: begin on the cell, set the typed
// value, commit. Select-type fields take the immediate-commit path.
type GridHandler struct {
	registry *fieldcfg.Registry
	cache    *reconcile.Cache
	applier  reconcile.Applier
	resolver reconcile.ItemResolver
}

func NewGridHandler(registry *fieldcfg.Registry, cache *reconcile.Cache, applier reconcile.Applier, resolver reconcile.ItemResolver) *GridHandler {
	return &GridHandler{registry: registry, cache: cache, applier: applier, resolver: resolver}
}

// RegisterRoutes registers grid cell endpoints on the given Chi router.
// Expected to be mounted at /orders.
func (h *GridHandler) RegisterRoutes(r chi.Router) {
	r.Put("/{id}/fields/{name}", h.CommitField)
	r.Put("/{id}/items/{index}/{field}", h.CommitItemField)
}

type commitCellRequest struct {
	Value string `json:"value"`
}

// CommitField handles PUT /orders/{id}/fields/{name}.
func (h *GridHandler) CommitField(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req commitCellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	orderID := chi.URLParam(r, "id")
	if !h.ownsOrder(w, claims, orderID) {
		return
	}

	ref := grid.CellRef{OrderID: orderID, Field: chi.URLParam(r, "name")}
	order, err := h.commit(r.Context(), claims.Role, ref, req.Value)
	if err != nil {
		respondGridError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// CommitItemField handles PUT /orders/{id}/items/{index}/{field}.
func (h *GridHandler) CommitItemField(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || idx < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item index"})
		return
	}

	var req commitCellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	orderID := chi.URLParam(r, "id")
	if !h.ownsOrder(w, claims, orderID) {
		return
	}

	ref := grid.CellRef{OrderID: orderID, ItemIndex: idx, ItemField: chi.URLParam(r, "field")}
	order, err := h.commit(r.Context(), claims.Role, ref, req.Value)
	if err != nil {
		respondGridError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// --- Helpers ---

func (h *GridHandler) commit(ctx context.Context, role string, ref grid.CellRef, value string) (crm.Order, error) {
	fields, err := h.registry.Resolve(ctx, nil)
	if err != nil {
		return crm.Order{}, err
	}
	ed := grid.NewEditor(role, fields, h.cache, h.applier, h.resolver)

	if cfg, ok := fields.Get(ref.Field); ok && ref.ItemField == "" && cfg.Type == fieldcfg.TypeSelect {
		return ed.CommitSelection(ctx, ref, value)
	}

	if _, err := ed.Begin(ref); err != nil {
		return crm.Order{}, err
	}
	if err := ed.Set(value); err != nil {
		return crm.Order{}, err
	}
	return ed.Commit(ctx)
}

// ownsOrder verifies a vendor caller is editing their own order.
// Admins pass unconditionally.
func (h *GridHandler) ownsOrder(w http.ResponseWriter, claims *auth.Claims, orderID string) bool {
	if claims.Role != enum.RoleVendor {
		return true
	}
	order, ok := h.cache.Get(orderID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return false
	}
	if order.Vendor.ID != claims.VendorID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "order belongs to another vendor"})
		return false
	}
	return true
}

func respondGridError(w http.ResponseWriter, err error) {
	var verr *grid.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"field":   verr.Field,
			"message": verr.Message,
		})
	case errors.Is(err, grid.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	case errors.Is(err, grid.ErrUnknownColumn), errors.Is(err, grid.ErrBadItemIndex):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, grid.ErrNotEditable), errors.Is(err, reconcile.ErrFieldNotEditable):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case isBadInput(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: grid commit: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "order could not be saved"})
	}
}
