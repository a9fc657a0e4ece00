package crm

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestVendorRefUnmarshalBareString(t *testing.T) {
	var o Order
	if err := json.Unmarshal([]byte(`{"_id":"o1","vendorId":"v1"}`), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.Vendor.ID != "v1" {
		t.Errorf("expected vendor id v1, got %q", o.Vendor.ID)
	}
	if o.Vendor.Name != "" {
		t.Errorf("expected empty vendor name, got %q", o.Vendor.Name)
	}
}

func TestVendorRefUnmarshalPopulatedObject(t *testing.T) {
	var o Order
	body := `{"_id":"o1","vendorId":{"_id":"v1","name":"Acme Parts"}}`
	if err := json.Unmarshal([]byte(body), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.Vendor.ID != "v1" {
		t.Errorf("expected vendor id v1, got %q", o.Vendor.ID)
	}
	if o.Vendor.Name != "Acme Parts" {
		t.Errorf("expected vendor name Acme Parts, got %q", o.Vendor.Name)
	}
}

func TestVendorRefUnmarshalNull(t *testing.T) {
	var o Order
	if err := json.Unmarshal([]byte(`{"_id":"o1","vendorId":null}`), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.Vendor.ID != "" {
		t.Errorf("expected empty vendor id, got %q", o.Vendor.ID)
	}
}

func TestVendorRefMarshalEmitsBareID(t *testing.T) {
	o := Order{ID: "o1", Vendor: VendorRef{ID: "v1", Name: "Acme Parts"}}
	raw, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"vendorId":"v1"`) {
		t.Errorf("expected bare vendor id in payload, got %s", raw)
	}
}

func TestOrderPayloadOmitsUnsetFields(t *testing.T) {
	price := decimal.RequireFromString("10.50")
	p := OrderPayload{
		VendorID: "v1",
		Price:    &price,
	}
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	if !strings.Contains(body, `"price":"10.5"`) {
		t.Errorf("expected price in payload, got %s", body)
	}
	for _, absent := range []string{"transferAmount", "invoiceNumber", "shippingDate", "notes"} {
		if strings.Contains(body, absent) {
			t.Errorf("expected %s to be omitted, got %s", absent, body)
		}
	}
}

func TestPatchMarshalKeepsDottedKeys(t *testing.T) {
	patch := Patch{
		"items.2.quantity":   5,
		"items.2.totalPrice": decimal.RequireFromString("52.50"),
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["items.2.quantity"]; !ok {
		t.Errorf("expected dotted key to survive, got %s", raw)
	}
}
