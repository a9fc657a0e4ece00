package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/catalog"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/handler"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/middleware"
)

func setupProductRouter(t *testing.T) *chi.Mux {
	t.Helper()
	lister := &productLister{products: []crm.Product{
		{ID: "p1", ItemNumber: "A-100", Name: "Front brake pad"},
		{ID: "p2", ItemNumber: "A-200", Name: "Rear brake pad"},
		{ID: "p3", ItemNumber: "B-300", Name: "Oil filter"},
	}}
	cat := catalog.New(lister)
	if err := cat.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	h := handler.NewProductHandler(cat)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/products", h.RegisterRoutes)
	return r
}

func decodeProducts(t *testing.T, rr *httptest.ResponseRecorder) []crm.Product {
	t.Helper()
	var products []crm.Product
	if err := json.NewDecoder(rr.Body).Decode(&products); err != nil {
		t.Fatalf("decode products: %v", err)
	}
	return products
}

func TestProductListAll(t *testing.T) {
	router := setupProductRouter(t)

	rr := doAuthRequest(t, router, "GET", "/products", nil, vendorClaims("v1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", rr.Code, rr.Body.String())
	}
	if got := decodeProducts(t, rr); len(got) != 3 {
		t.Errorf("got %d products, want 3", len(got))
	}
}

func TestProductSearch(t *testing.T) {
	router := setupProductRouter(t)

	rr := doAuthRequest(t, router, "GET", "/products?q=brake", nil, adminClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	got := decodeProducts(t, rr)
	if len(got) != 2 || got[0].ID != "p1" || got[1].ID != "p2" {
		t.Errorf("search brake = %v, want [p1 p2]", got)
	}

	// an exact item number returns just that product
	rr = doAuthRequest(t, router, "GET", "/products?q=A-100", nil, adminClaims())
	got = decodeProducts(t, rr)
	if len(got) != 1 || got[0].ID != "p1" {
		t.Errorf("search A-100 = %v, want [p1]", got)
	}
}

func TestProductSearchLimit(t *testing.T) {
	router := setupProductRouter(t)

	rr := doAuthRequest(t, router, "GET", "/products?q=brake&limit=1", nil, adminClaims())
	if got := decodeProducts(t, rr); len(got) != 1 {
		t.Errorf("limited search returned %d products, want 1", len(got))
	}

	rr = doAuthRequest(t, router, "GET", "/products?limit=2", nil, adminClaims())
	if got := decodeProducts(t, rr); len(got) != 2 {
		t.Errorf("limited list returned %d products, want 2", len(got))
	}
}

func TestProductSearchNoMatch(t *testing.T) {
	router := setupProductRouter(t)

	rr := doAuthRequest(t, router, "GET", "/products?q=zebra", nil, adminClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if got := decodeProducts(t, rr); len(got) != 0 {
		t.Errorf("expected no results, got %v", got)
	}
}
