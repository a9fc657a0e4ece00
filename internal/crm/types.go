package crm

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// VendorRef is an order's vendor reference. Upstream sends either a bare
// id string or an embedded vendor object; both decode to the same
// normalized form, so nothing past this boundary branches on shape.
type VendorRef struct {
	ID   string
	Name string
}

func (v *VendorRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		v.ID = id
		v.Name = ""
		return nil
	}
	var obj struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("vendor ref: %w", err)
	}
	v.ID = obj.ID
	v.Name = obj.Name
	return nil
}

// Outbound payloads always carry the bare id.
func (v VendorRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ID)
}

// Item is one order line as stored upstream.
type Item struct {
	ProductID   string          `json:"productId,omitempty"`
	ItemNumber  string          `json:"itemNumber"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Image       string          `json:"image,omitempty"`
}

// Order is the upstream order entity. Consumed, never owned: the engine
// reads it and emits patches against it. Date fields stay strings here;
// the form layer normalizes them for display.
type Order struct {
	ID                  string          `json:"_id"`
	OrderNumber         string          `json:"orderNumber"`
	Vendor              VendorRef       `json:"vendorId"`
	Items               []Item          `json:"items"`
	Status              string          `json:"status"`
	PriceApprovalStatus string          `json:"priceApprovalStatus"`
	Price               decimal.Decimal `json:"price"`
	TotalAmount         decimal.Decimal `json:"totalAmount"`
	ConfirmationDate    string          `json:"confirmationDate,omitempty"`
	InvoiceNumber       string          `json:"invoiceNumber,omitempty"`
	TransferAmount      decimal.Decimal `json:"transferAmount"`
	ShippingDate        string          `json:"shippingDate,omitempty"`
	ArrivalDate         string          `json:"arrivalDate,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// Product is a catalog entry used for item auto-fill and product-id
// resolution.
type Product struct {
	ID         string          `json:"_id"`
	ItemNumber string          `json:"itemNumber"`
	Name       string          `json:"name"`
	Images     []string        `json:"images,omitempty"`
	VendorID   string          `json:"vendorId,omitempty"`
	Price      decimal.Decimal `json:"price"`
}

// OrderPayload is the outbound full-order body for creates and admin
// full edits. Optional fields are pointers so a stripped field is absent
// from the encoded JSON rather than sent as a zero value.
type OrderPayload struct {
	OrderNumber         string           `json:"orderNumber,omitempty"`
	VendorID            string           `json:"vendorId,omitempty"`
	Items               []Item           `json:"items"`
	Status              string           `json:"status,omitempty"`
	PriceApprovalStatus string           `json:"priceApprovalStatus,omitempty"`
	Price               *decimal.Decimal `json:"price,omitempty"`
	TotalAmount         *decimal.Decimal `json:"totalAmount,omitempty"`
	ConfirmationDate    *string          `json:"confirmationDate,omitempty"`
	InvoiceNumber       *string          `json:"invoiceNumber,omitempty"`
	TransferAmount      *decimal.Decimal `json:"transferAmount,omitempty"`
	ShippingDate        *string          `json:"shippingDate,omitempty"`
	ArrivalDate         *string          `json:"arrivalDate,omitempty"`
	Notes               *string          `json:"notes,omitempty"`
}

// Patch is a scoped update: only the changed fields, keyed by field name
// or dotted item path ("items.2.quantity"). The order id rides separately.
type Patch map[string]any
