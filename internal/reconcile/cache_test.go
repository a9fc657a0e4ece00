package reconcile

import (
	"testing"
	"time"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
	"github.com/shopspring/decimal"
)

func cachedOrder() crm.Order {
	return crm.Order{
		ID:          "o1",
		OrderNumber: "ORD-1",
		Vendor:      crm.VendorRef{ID: "v1", Name: "Acme"},
		Status:      "pending",
		Items: []crm.Item{
			{ItemNumber: "A-100", ProductName: "Brake pad", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00"), TotalPrice: decimal.RequireFromString("20.00")},
		},
		TotalAmount: decimal.RequireFromString("20.00"),
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCachePutGetIsolation(t *testing.T) {
	cache := NewCache()
	cache.Put(cachedOrder())

	got, ok := cache.Get("o1")
	if !ok {
		t.Fatal("expected cached order")
	}
	got.Items[0].Quantity = 99
	got.Status = "mutated"

	again, _ := cache.Get("o1")
	if again.Items[0].Quantity != 2 || again.Status != "pending" {
		t.Error("expected cache to be isolated from returned copies")
	}
}

func TestCacheApplyPatchTopLevelFields(t *testing.T) {
	cache := NewCache()
	cache.Put(cachedOrder())

	updated, ok := cache.ApplyPatch("o1", crm.Patch{
		"status": "confirmed",
		"price":  decimal.RequireFromString("99.50"),
		"notes":  "optimistic",
	})
	if !ok {
		t.Fatal("expected patch to land")
	}
	if updated.Status != "confirmed" {
		t.Errorf("expected status confirmed, got %q", updated.Status)
	}
	if !updated.Price.Equal(decimal.RequireFromString("99.50")) {
		t.Errorf("expected price 99.50, got %s", updated.Price)
	}
	if updated.Notes != "optimistic" {
		t.Errorf("expected notes, got %q", updated.Notes)
	}
}

func TestCacheApplyPatchVendorChangeDropsStaleName(t *testing.T) {
	cache := NewCache()
	cache.Put(cachedOrder())

	updated, _ := cache.ApplyPatch("o1", crm.Patch{"vendorId": "v2"})
	if updated.Vendor.ID != "v2" {
		t.Errorf("expected vendor v2, got %q", updated.Vendor.ID)
	}
	if updated.Vendor.Name != "" {
		t.Errorf("expected stale vendor name dropped, got %q", updated.Vendor.Name)
	}
}

func TestCacheApplyPatchItemPaths(t *testing.T) {
	cache := NewCache()
	cache.Put(cachedOrder())

	updated, _ := cache.ApplyPatch("o1", crm.Patch{
		"items.0.quantity":   5,
		"items.0.totalPrice": decimal.RequireFromString("50.00"),
	})
	if updated.Items[0].Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", updated.Items[0].Quantity)
	}
	if !updated.Items[0].TotalPrice.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("expected total 50.00, got %s", updated.Items[0].TotalPrice)
	}
}

func TestCacheApplyPatchIgnoresBadItemPaths(t *testing.T) {
	cache := NewCache()
	cache.Put(cachedOrder())

	updated, ok := cache.ApplyPatch("o1", crm.Patch{
		"items.9.quantity":   5,
		"items.x.quantity":   5,
		"items.0.galaxy":     "far away",
		"items.0.quantity":   3,
		"items.0.totalPrice": decimal.RequireFromString("30.00"),
	})
	if !ok {
		t.Fatal("expected patch to land")
	}
	if updated.Items[0].Quantity != 3 {
		t.Errorf("expected valid path applied, got %d", updated.Items[0].Quantity)
	}
}

func TestCacheApplyPatchMissingOrder(t *testing.T) {
	cache := NewCache()
	if _, ok := cache.ApplyPatch("missing", crm.Patch{"status": "x"}); ok {
		t.Error("expected miss for unknown order")
	}
}

func TestCacheApplyPayload(t *testing.T) {
	cache := NewCache()
	cache.Put(cachedOrder())

	price := decimal.RequireFromString("75.00")
	cleared := ""
	updated, ok := cache.ApplyPayload("o1", &crm.OrderPayload{
		VendorID:      "v2",
		Status:        "shipped",
		Price:         &price,
		InvoiceNumber: &cleared,
		Items:         []crm.Item{{ItemNumber: "B-200", ProductName: "Oil filter", Quantity: 1, UnitPrice: price, TotalPrice: price}},
	})
	if !ok {
		t.Fatal("expected payload to land")
	}
	if updated.Vendor.ID != "v2" || updated.Status != "shipped" {
		t.Errorf("unexpected order after payload: %+v", updated)
	}
	if updated.InvoiceNumber != "" {
		t.Errorf("expected invoice number cleared, got %q", updated.InvoiceNumber)
	}
	if len(updated.Items) != 1 || updated.Items[0].ItemNumber != "B-200" {
		t.Errorf("expected items replaced, got %+v", updated.Items)
	}
}

func TestCacheListNewestFirst(t *testing.T) {
	cache := NewCache()
	older := cachedOrder()
	newer := cachedOrder()
	newer.ID = "o2"
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)
	cache.Put(older)
	cache.Put(newer)

	list := cache.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(list))
	}
	if list[0].ID != "o2" || list[1].ID != "o1" {
		t.Errorf("expected newest first, got %s then %s", list[0].ID, list[1].ID)
	}
}

func TestCacheReplaceAllAndDelete(t *testing.T) {
	cache := NewCache()
	cache.Put(cachedOrder())

	replacement := cachedOrder()
	replacement.ID = "o9"
	cache.ReplaceAll([]crm.Order{replacement})

	if _, ok := cache.Get("o1"); ok {
		t.Error("expected old order gone after ReplaceAll")
	}
	if _, ok := cache.Get("o9"); !ok {
		t.Error("expected replacement order present")
	}

	cache.Delete("o9")
	if _, ok := cache.Get("o9"); ok {
		t.Error("expected order gone after Delete")
	}
}
