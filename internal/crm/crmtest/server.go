// Package crmtest provides an in-memory stand-in for the upstream CRM
// persistence API, backed by httptest. Tests exercise the real HTTP
// client against it and inspect the requests it received.
package crmtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/enum"
	"github.com/go-chi/chi/v5"
)

type Server struct {
	mu       sync.Mutex
	orders   map[string]*crm.Order
	products map[string]*crm.Product
	seq      int

	failUpdates bool
	lastAuth    string
	lastUpdate  []byte

	srv *httptest.Server
}

func New() *Server {
	s := &Server{
		orders:   make(map[string]*crm.Order),
		products: make(map[string]*crm.Product),
	}

	r := chi.NewRouter()
	r.Post("/orders", s.createOrder)
	r.Get("/orders", s.listOrders)
	r.Get("/orders/{id}", s.getOrder)
	r.Put("/orders/{id}", s.updateOrder)
	r.Post("/orders/{id}/items/{index}/image", s.uploadImage)
	r.Post("/products", s.createProduct)
	r.Get("/products", s.listProducts)
	r.Put("/products/{id}", s.updateProduct)

	s.srv = httptest.NewServer(r)
	return s
}

func (s *Server) Close()      { s.srv.Close() }
func (s *Server) URL() string { return s.srv.URL }

// Client returns a real API client pointed at this server.
func (s *Server) Client() *crm.Client {
	return crm.NewClient(s.srv.URL, "test-token")
}

// FailUpdates makes every subsequent order update return HTTP 500.
func (s *Server) FailUpdates(fail bool) {
	s.mu.Lock()
	s.failUpdates = fail
	s.mu.Unlock()
}

// LastAuth returns the Authorization header of the most recent request.
func (s *Server) LastAuth() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth
}

// LastUpdateBody returns the raw body of the most recent order update.
func (s *Server) LastUpdateBody() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdate
}

// AddOrder seeds an order, assigning an id when absent, and returns it.
func (s *Server) AddOrder(o crm.Order) crm.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == "" {
		o.ID = s.nextID()
	}
	if o.Status == "" {
		o.Status = enum.OrderStatusPending
	}
	cp := o
	s.orders[o.ID] = &cp
	return o
}

// AddProduct seeds a catalog product, assigning an id when absent.
func (s *Server) AddProduct(p crm.Product) crm.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = s.nextID()
	}
	cp := p
	s.products[p.ID] = &cp
	return p
}

// Order returns the stored order by id.
func (s *Server) Order(id string) (crm.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return crm.Order{}, false
	}
	return *o, true
}

func (s *Server) nextID() string {
	s.seq++
	return fmt.Sprintf("%024d", s.seq)
}

// --- HTTP handlers ---

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	s.recordAuth(r)
	var payload map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	o := &crm.Order{
		ID:                  s.nextID(),
		Status:              enum.OrderStatusPending,
		PriceApprovalStatus: enum.PriceApprovalPending,
		CreatedAt:           time.Now().UTC(),
		UpdatedAt:           time.Now().UTC(),
	}
	doc := orderToMap(*o)
	for key, val := range payload {
		var v any
		if err := json.Unmarshal(val, &v); err != nil {
			s.mu.Unlock()
			respondErr(w, http.StatusBadRequest, "invalid value for "+key)
			return
		}
		setPath(doc, key, v)
	}
	if err := mapToOrder(doc, o); err != nil {
		s.mu.Unlock()
		respondErr(w, http.StatusBadRequest, err.Error())
		return
	}
	s.orders[o.ID] = o
	out := *o
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, out)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	s.recordAuth(r)
	s.mu.Lock()
	out := make([]crm.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	s.recordAuth(r)
	s.mu.Lock()
	o, ok := s.orders[chi.URLParam(r, "id")]
	var out crm.Order
	if ok {
		out = *o
	}
	s.mu.Unlock()
	if !ok {
		respondErr(w, http.StatusNotFound, "order not found")
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request) {
	s.recordAuth(r)
	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	s.lastUpdate = body
	if s.failUpdates {
		s.mu.Unlock()
		respondErr(w, http.StatusInternalServerError, "forced failure")
		return
	}
	o, ok := s.orders[chi.URLParam(r, "id")]
	if !ok {
		s.mu.Unlock()
		respondErr(w, http.StatusNotFound, "order not found")
		return
	}
	if err := s.applyChanges(o, body); err != nil {
		s.mu.Unlock()
		respondErr(w, http.StatusBadRequest, err.Error())
		return
	}
	o.UpdatedAt = time.Now().UTC()
	out := *o
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, out)
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	s.recordAuth(r)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "missing image part")
		return
	}
	file.Close()

	orderID := chi.URLParam(r, "id")
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid item index")
		return
	}

	s.mu.Lock()
	o, ok := s.orders[orderID]
	if !ok {
		s.mu.Unlock()
		respondErr(w, http.StatusNotFound, "order not found")
		return
	}
	if idx < 0 || idx >= len(o.Items) {
		s.mu.Unlock()
		respondErr(w, http.StatusBadRequest, "item index out of range")
		return
	}
	url := fmt.Sprintf("%s/uploads/%s/%d/%s", s.srv.URL, orderID, idx, header.Filename)
	o.Items[idx].Image = url
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	s.recordAuth(r)
	var p crm.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	p.ID = s.nextID()
	s.products[p.ID] = &p
	out := p
	s.mu.Unlock()
	respondJSON(w, http.StatusCreated, out)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	s.recordAuth(r)
	s.mu.Lock()
	out := make([]crm.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	s.recordAuth(r)
	var changes map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	p, ok := s.products[chi.URLParam(r, "id")]
	if !ok {
		s.mu.Unlock()
		respondErr(w, http.StatusNotFound, "product not found")
		return
	}
	raw, _ := json.Marshal(p)
	var doc map[string]any
	_ = json.Unmarshal(raw, &doc)
	for key, val := range changes {
		var v any
		_ = json.Unmarshal(val, &v)
		doc[key] = v
	}
	merged, _ := json.Marshal(doc)
	if err := json.Unmarshal(merged, p); err != nil {
		s.mu.Unlock()
		respondErr(w, http.StatusBadRequest, err.Error())
		return
	}
	out := *p
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, out)
}

// --- Change application ---

// applyChanges treats the body as a set of top-level or dotted item
// paths; a full payload is just the degenerate case with no dots.
func (s *Server) applyChanges(o *crm.Order, body []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("invalid changes: %w", err)
	}
	doc := orderToMap(*o)
	for key, val := range raw {
		var v any
		if err := json.Unmarshal(val, &v); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		setPath(doc, key, v)
	}
	return mapToOrder(doc, o)
}

func setPath(doc map[string]any, key string, val any) {
	if !strings.Contains(key, ".") {
		doc[key] = val
		return
	}
	parts := strings.SplitN(key, ".", 3)
	if len(parts) != 3 || parts[0] != "items" {
		doc[key] = val
		return
	}
	idx, err := strconv.Atoi(parts[1])
	list, ok := doc["items"].([]any)
	if err != nil || !ok || idx < 0 || idx >= len(list) {
		return
	}
	if item, ok := list[idx].(map[string]any); ok {
		item[parts[2]] = val
	}
}

func orderToMap(o crm.Order) map[string]any {
	raw, _ := json.Marshal(o)
	var doc map[string]any
	_ = json.Unmarshal(raw, &doc)
	return doc
}

func mapToOrder(doc map[string]any, o *crm.Order) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, o)
}

// --- Responses ---

func (s *Server) recordAuth(r *http.Request) {
	s.mu.Lock()
	s.lastAuth = r.Header.Get("Authorization")
	s.mu.Unlock()
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondErr(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
