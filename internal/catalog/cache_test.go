package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
)

type mockLister struct {
	listFn func(ctx context.Context) ([]crm.Product, error)
	calls  int
}

func (m *mockLister) ListProducts(ctx context.Context) ([]crm.Product, error) {
	m.calls++
	return m.listFn(ctx)
}

func testProducts() []crm.Product {
	return []crm.Product{
		{ID: "p1", ItemNumber: "A-100", Name: "Brake pad"},
		{ID: "p2", ItemNumber: "B-200", Name: "Oil filter"},
	}
}

func TestRefreshAndLookup(t *testing.T) {
	lister := &mockLister{listFn: func(ctx context.Context) ([]crm.Product, error) {
		return testProducts(), nil
	}}
	cache := New(lister)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	p, ok := cache.ByItemNumber("A-100")
	if !ok || p.ID != "p1" {
		t.Errorf("expected p1, got %+v ok=%v", p, ok)
	}
	if name := cache.ProductName("B-200"); name != "Oil filter" {
		t.Errorf("expected Oil filter, got %q", name)
	}
	if id := cache.ResolveProductID("A-100"); id != "p1" {
		t.Errorf("expected p1, got %q", id)
	}
}

func TestLookupNormalizesItemNumber(t *testing.T) {
	lister := &mockLister{listFn: func(ctx context.Context) ([]crm.Product, error) {
		return testProducts(), nil
	}}
	cache := New(lister)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if _, ok := cache.ByItemNumber("  a-100 "); !ok {
		t.Error("expected case- and space-insensitive lookup to hit")
	}
}

func TestLookupMissBeforeRefresh(t *testing.T) {
	cache := New(&mockLister{listFn: func(ctx context.Context) ([]crm.Product, error) {
		return testProducts(), nil
	}})
	if _, ok := cache.ByItemNumber("A-100"); ok {
		t.Error("expected miss before first refresh")
	}
	if id := cache.ResolveProductID("A-100"); id != "" {
		t.Errorf("expected empty id before refresh, got %q", id)
	}
}

func TestRefreshErrorKeepsOldSnapshot(t *testing.T) {
	fail := false
	lister := &mockLister{listFn: func(ctx context.Context) ([]crm.Product, error) {
		if fail {
			return nil, errors.New("upstream down")
		}
		return testProducts(), nil
	}}
	cache := New(lister)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	fail = true
	if err := cache.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	if _, ok := cache.ByItemNumber("A-100"); !ok {
		t.Error("expected old snapshot to survive a failed refresh")
	}
}

func TestProductsReturnsCopy(t *testing.T) {
	lister := &mockLister{listFn: func(ctx context.Context) ([]crm.Product, error) {
		return testProducts(), nil
	}}
	cache := New(lister)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	list := cache.Products()
	if len(list) != 2 {
		t.Fatalf("expected 2 products, got %d", len(list))
	}
	list[0].Name = "mutated"
	if p, _ := cache.ByItemNumber("A-100"); p.Name != "Brake pad" {
		t.Error("expected snapshot to be isolated from returned slice")
	}
}
