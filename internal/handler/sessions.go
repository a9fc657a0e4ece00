package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/enum"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/fieldcfg"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/items"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/middleware"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/session"
)

// SessionHandler exposes the order-editing session lifecycle: open a
// form, stage field and item edits, submit, cancel.
type SessionHandler struct {
	sessions *session.Manager
}

func NewSessionHandler(sessions *session.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// RegisterRoutes registers session endpoints on the given Chi router.
// Expected to be mounted at /sessions.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Open)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Close)
	r.Put("/{id}/fields/{name}", h.SetField)
	r.Post("/{id}/items", h.AddItem)
	r.Post("/{id}/items/bulk", h.BulkAddItems)
	r.Patch("/{id}/items/{itemID}", h.UpdateItem)
	r.Delete("/{id}/items/{itemID}", h.RemoveItem)
	r.Post("/{id}/submit", h.Submit)
}

// --- Request / Response types ---

type openSessionRequest struct {
	OrderID string `json:"orderId"`
}

type setFieldRequest struct {
	Value string `json:"value"`
}

type updateItemRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type bulkItemsRequest struct {
	Text string `json:"text"`
}

// bulkItemsResponse is the render model plus the lines the parser
// skipped, so the UI can tell the user what did not make it in.
type bulkItemsResponse struct {
	sessionResponse
	Warnings []string `json:"warnings,omitempty"`
}

// fieldView is one form field in the render model: its configuration
// plus the session's current value, editability for the caller's role,
// and any validation error.
type fieldView struct {
	fieldcfg.FieldConfig
	Value    string `json:"value"`
	Editable bool   `json:"editable"`
	Error    string `json:"error,omitempty"`
}

type itemView struct {
	ID          string `json:"id"`
	ProductID   string `json:"productId,omitempty"`
	ItemNumber  string `json:"itemNumber"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	TotalPrice  string `json:"totalPrice"`
	Image       string `json:"image,omitempty"`
}

type sessionResponse struct {
	ID            string            `json:"id"`
	Phase         string            `json:"phase"`
	OrderID       string            `json:"orderId,omitempty"`
	Create        bool              `json:"create"`
	Fields        []fieldView       `json:"fields"`
	Items         []itemView        `json:"items"`
	ItemErrors    map[string]string `json:"itemErrors,omitempty"`
	TotalQuantity int               `json:"totalQuantity"`
	TotalAmount   string            `json:"totalAmount"`
}

type validationResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// --- Handlers ---

// Open handles POST /sessions. An empty or absent body opens a create
// draft; {"orderId": "..."} opens an edit of an existing order.
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s, err := h.sessions.Open(r.Context(), claims.Role, claims.VendorID, req.OrderID)
	if err != nil {
		respondSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, renderSession(s))
}

// Get handles GET /sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, renderSession(s))
}

// Close handles DELETE /sessions/{id}. Staged edits are discarded.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	if err := h.sessions.Close(s.ID); err != nil {
		respondSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetField handles PUT /sessions/{id}/fields/{name}.
func (h *SessionHandler) SetField(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	var req setFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := s.SetField(chi.URLParam(r, "name"), req.Value); err != nil {
		respondSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderSession(s))
}

// AddItem handles POST /sessions/{id}/items.
func (h *SessionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	if _, err := s.AddItem(); err != nil {
		respondSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderSession(s))
}

// BulkAddItems handles POST /sessions/{id}/items/bulk. The body text
// holds pasted item lines, one row per line.
func (h *SessionHandler) BulkAddItems(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	var req bulkItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	warnings, err := s.BulkAddItems(req.Text)
	if err != nil {
		if errors.Is(err, items.ErrNoLines) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		respondSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bulkItemsResponse{
		sessionResponse: renderSession(s),
		Warnings:        warnings,
	})
}

// UpdateItem handles PATCH /sessions/{id}/items/{itemID}. The body
// names one item column and its new raw value.
func (h *SessionHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := s.UpdateItem(chi.URLParam(r, "itemID"), req.Field, req.Value); err != nil {
		respondSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderSession(s))
}

// RemoveItem handles DELETE /sessions/{id}/items/{itemID}. The last
// remaining row cannot be removed.
func (h *SessionHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	if err := s.RemoveItem(chi.URLParam(r, "itemID")); err != nil {
		respondSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderSession(s))
}

// Submit handles POST /sessions/{id}/submit. On success the session is
// closed and the canonical order is returned; a create responds 201.
// On validation failure the session stays open and the field errors
// come back with a 422.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	created := s.IsCreate()
	order, err := h.sessions.Submit(r.Context(), s.ID)
	if err != nil {
		if errors.Is(err, session.ErrValidationFailed) {
			writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
				Error:  "validation failed",
				Fields: s.FieldErrors(),
			})
			return
		}
		respondSessionError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, order)
}

// --- Helpers ---

// ownedSession loads the session from the URL and verifies the caller
// owns it. A session opened by another vendor is reported as missing.
func (h *SessionHandler) ownedSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return nil, false
	}

	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return nil, false
	}

	if s.Role != claims.Role || (s.Role == enum.RoleVendor && s.VendorID != claims.VendorID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return nil, false
	}
	return s, true
}

func renderSession(s *session.Session) sessionResponse {
	values := s.Values()
	errs := s.FieldErrors()

	visible := s.Fields().VisibleTo(s.Role)
	views := make([]fieldView, 0, len(visible))
	for _, cfg := range visible {
		views = append(views, fieldView{
			FieldConfig: cfg,
			Value:       values[cfg.Name],
			Editable:    fieldcfg.Applies(cfg.EditableBy, s.Role),
			Error:       errs[cfg.Name],
		})
	}

	rows := s.Items()
	itemViews := make([]itemView, 0, len(rows))
	for _, it := range rows {
		itemViews = append(itemViews, itemView{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ItemNumber:  it.ItemNumber,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(2),
			TotalPrice:  it.TotalPrice.StringFixed(2),
			Image:       it.Image,
		})
	}

	itemErrs := make(map[string]string)
	for k, v := range errs {
		if strings.HasPrefix(k, "items.") {
			itemErrs[k] = v
		}
	}

	qty, amount := s.Totals()
	return sessionResponse{
		ID:            s.ID,
		Phase:         s.Phase(),
		OrderID:       s.OrderID,
		Create:        s.IsCreate(),
		Fields:        views,
		Items:         itemViews,
		ItemErrors:    itemErrs,
		TotalQuantity: qty,
		TotalAmount:   amount.StringFixed(2),
	}
}
