// Package reconcile turns form and grid edits into pending updates,
// applies them optimistically to the local order cache, and settles
// them against the CRM API.
package reconcile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/enum"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/fieldcfg"
	"github.com/shopspring/decimal"
)

var (
	ErrVendorRequired   = errors.New("vendor selection is required")
	ErrNoItems          = errors.New("add at least one item")
	ErrFieldNotEditable = errors.New("field is not editable for this role")
	ErrUnknownField     = errors.New("unknown field")
	ErrInvalidValue     = errors.New("invalid field value")
)

// nowFunc is swapped in tests to pin generated order numbers.
var nowFunc = time.Now

// PendingUpdate is one unit of work headed upstream: a create payload
// when OrderID is empty, otherwise a scoped patch for an existing order.
type PendingUpdate struct {
	OrderID string
	Payload *crm.OrderPayload
	Patch   crm.Patch
}

func (p PendingUpdate) IsCreate() bool {
	return p.OrderID == ""
}

// ProductResolver resolves catalog item numbers to product ids.
type ProductResolver interface {
	ResolveProductID(itemNumber string) string
}

// ItemResolver additionally supplies product names, for item-number
// edits that auto-fill the row.
type ItemResolver interface {
	ProductResolver
	ProductName(itemNumber string) string
}

// itemFieldEditors maps inline-editable item columns to the audience
// allowed to change them.
var itemFieldEditors = map[string]string{
	"itemNumber":  fieldcfg.AudienceAdmin,
	"productName": fieldcfg.AudienceAdmin,
	"quantity":    fieldcfg.AudienceBoth,
	"unitPrice":   fieldcfg.AudienceVendor,
}

// CanEditItemField reports whether the role may edit the item column.
func CanEditItemField(field, role string) bool {
	audience, ok := itemFieldEditors[field]
	return ok && fieldcfg.Applies(audience, role)
}

// KnownItemField reports whether the item column is inline-editable at
// all, for any role.
func KnownItemField(field string) bool {
	_, ok := itemFieldEditors[field]
	return ok
}

// NewOrderNumber generates a fresh order number from the current time.
func NewOrderNumber() string {
	return fmt.Sprintf("ORD-%d", nowFunc().UnixMilli())
}

// BuildAdminCreate assembles the create payload for an admin-entered
// order. Product ids are resolved from the catalog when possible; rows
// with unknown item numbers ship without one.
func BuildAdminCreate(values map[string]string, rows []crm.Item, resolver ProductResolver) (PendingUpdate, error) {
	vendorID := strings.TrimSpace(values["vendorId"])
	if vendorID == "" {
		return PendingUpdate{}, ErrVendorRequired
	}
	if len(rows) == 0 {
		return PendingUpdate{}, ErrNoItems
	}

	wire := wireItems(rows, resolver)
	total := sumTotals(wire)
	payload := &crm.OrderPayload{
		OrderNumber:         NewOrderNumber(),
		VendorID:            vendorID,
		Items:               wire,
		Status:              valueOr(values["status"], enum.OrderStatusPending),
		PriceApprovalStatus: valueOr(values["priceApprovalStatus"], enum.PriceApprovalPending),
		TotalAmount:         &total,
	}
	if notes := strings.TrimSpace(values["notes"]); notes != "" {
		payload.Notes = &notes
	}
	if raw := strings.TrimSpace(values["transferAmount"]); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return PendingUpdate{}, fmt.Errorf("transferAmount: %w", ErrInvalidValue)
		}
		if !amount.IsZero() {
			payload.TransferAmount = &amount
		}
	}
	if date := strings.TrimSpace(values["arrivalDate"]); date != "" {
		payload.ArrivalDate = &date
	}
	return PendingUpdate{Payload: payload}, nil
}

// BuildVendorCreate assembles the create payload for a vendor-entered
// order. The vendor comes from the caller's identity, never the form,
// and quote fields like price are stripped; they arrive later through
// the vendor's own edits.
func BuildVendorCreate(vendorID string, values map[string]string, rows []crm.Item) (PendingUpdate, error) {
	if strings.TrimSpace(vendorID) == "" {
		return PendingUpdate{}, ErrVendorRequired
	}
	filled := 0
	for _, row := range rows {
		if strings.TrimSpace(row.ItemNumber) != "" {
			filled++
		}
	}
	if filled == 0 {
		return PendingUpdate{}, ErrNoItems
	}

	wire := wireItems(rows, nil)
	total := sumTotals(wire)
	payload := &crm.OrderPayload{
		OrderNumber: NewOrderNumber(),
		VendorID:    vendorID,
		Items:       wire,
		Status:      enum.OrderStatusPending,
		TotalAmount: &total,
	}
	if notes := strings.TrimSpace(values["notes"]); notes != "" {
		payload.Notes = &notes
	}
	return PendingUpdate{Payload: payload}, nil
}

// BuildAdminFullUpdate assembles the whole-form payload for an admin
// edit of an existing order. String fields are always sent so clearing
// one sticks; numeric fields are sent when the form holds a number.
func BuildAdminFullUpdate(orderID string, values map[string]string, rows []crm.Item, resolver ProductResolver) (PendingUpdate, error) {
	vendorID := strings.TrimSpace(values["vendorId"])
	if vendorID == "" {
		return PendingUpdate{}, ErrVendorRequired
	}
	if len(rows) == 0 {
		return PendingUpdate{}, ErrNoItems
	}

	wire := wireItems(rows, resolver)
	total := sumTotals(wire)
	payload := &crm.OrderPayload{
		VendorID:            vendorID,
		Items:               wire,
		Status:              valueOr(values["status"], enum.OrderStatusPending),
		PriceApprovalStatus: valueOr(values["priceApprovalStatus"], enum.PriceApprovalPending),
		TotalAmount:         &total,
	}
	for name, dst := range map[string]**decimal.Decimal{
		"price":          &payload.Price,
		"transferAmount": &payload.TransferAmount,
	} {
		raw := strings.TrimSpace(values[name])
		if raw == "" {
			continue
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return PendingUpdate{}, fmt.Errorf("%s: %w", name, ErrInvalidValue)
		}
		*dst = &amount
	}
	for name, dst := range map[string]**string{
		"confirmationDate": &payload.ConfirmationDate,
		"invoiceNumber":    &payload.InvoiceNumber,
		"shippingDate":     &payload.ShippingDate,
		"arrivalDate":      &payload.ArrivalDate,
		"notes":            &payload.Notes,
	} {
		value := strings.TrimSpace(values[name])
		*dst = &value
	}
	return PendingUpdate{OrderID: orderID, Payload: payload}, nil
}

// BuildVendorUpdate assembles the scoped patch for a vendor's form
// submit: only the fields the configuration lets a vendor edit, plus
// the item rows and the derived total. Admin fields never ride along.
// String and date fields are always sent so clearing one sticks;
// blank numbers stay out of the patch.
func BuildVendorUpdate(orderID string, fields fieldcfg.Fields, values map[string]string, rows []crm.Item) (PendingUpdate, error) {
	if len(rows) == 0 {
		return PendingUpdate{}, ErrNoItems
	}

	wire := wireItems(rows, nil)
	patch := crm.Patch{
		"items":       wire,
		"totalAmount": sumTotals(wire),
	}
	for _, cfg := range fields.EditableBy(enum.RoleVendor) {
		value, err := typedValue(cfg, values[cfg.Name])
		if err != nil {
			return PendingUpdate{}, fmt.Errorf("%s: %w", cfg.Name, ErrInvalidValue)
		}
		if value == nil {
			if cfg.Type == fieldcfg.TypeNumber {
				continue
			}
			value = ""
		}
		patch[cfg.Name] = value
	}
	return PendingUpdate{OrderID: orderID, Patch: patch}, nil
}

// BuildFieldPatch assembles the single-field patch for an inline edit
// of a top-level order field. Clearing a number field patches it to
// zero; clearing anything else patches it to the empty string.
func BuildFieldPatch(orderID string, cfg fieldcfg.FieldConfig, raw string) (PendingUpdate, error) {
	value, err := typedValue(cfg, raw)
	if err != nil {
		return PendingUpdate{}, fmt.Errorf("%s: %w", cfg.Name, ErrInvalidValue)
	}
	if value == nil {
		if cfg.Type == fieldcfg.TypeNumber {
			value = decimal.Zero
		} else {
			value = ""
		}
	}
	return PendingUpdate{OrderID: orderID, Patch: crm.Patch{cfg.Name: value}}, nil
}

// BuildItemPatch assembles the dotted-path patch for an inline edit of
// one item cell. Quantity and price edits carry the recomputed row
// total; item-number edits auto-fill the product name and id when the
// catalog knows the number.
func BuildItemPatch(orderID string, index int, field, raw string, current crm.Item, role string, resolver ItemResolver) (PendingUpdate, error) {
	if !CanEditItemField(field, role) {
		if _, known := itemFieldEditors[field]; !known {
			return PendingUpdate{}, ErrUnknownField
		}
		return PendingUpdate{}, ErrFieldNotEditable
	}

	patch := crm.Patch{}
	prefix := fmt.Sprintf("items.%d.", index)
	trimmed := strings.TrimSpace(raw)

	switch field {
	case "quantity":
		qty, err := strconv.Atoi(trimmed)
		if err != nil || qty <= 0 {
			return PendingUpdate{}, fmt.Errorf("quantity: %w", ErrInvalidValue)
		}
		patch[prefix+"quantity"] = qty
		patch[prefix+"totalPrice"] = current.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
	case "unitPrice":
		price, err := decimal.NewFromString(trimmed)
		if err != nil || price.IsNegative() {
			return PendingUpdate{}, fmt.Errorf("unitPrice: %w", ErrInvalidValue)
		}
		patch[prefix+"unitPrice"] = price
		patch[prefix+"totalPrice"] = price.Mul(decimal.NewFromInt(int64(current.Quantity)))
	case "itemNumber":
		if trimmed == "" {
			return PendingUpdate{}, fmt.Errorf("itemNumber: %w", ErrInvalidValue)
		}
		patch[prefix+"itemNumber"] = trimmed
		if resolver != nil {
			if name := resolver.ProductName(trimmed); name != "" {
				patch[prefix+"productName"] = name
			}
			if id := resolver.ResolveProductID(trimmed); id != "" {
				patch[prefix+"productId"] = id
			}
		}
	case "productName":
		if trimmed == "" {
			return PendingUpdate{}, fmt.Errorf("productName: %w", ErrInvalidValue)
		}
		patch[prefix+"productName"] = trimmed
	}

	return PendingUpdate{OrderID: orderID, Patch: patch}, nil
}

// wireItems maps rows to their outbound shape: product ids resolved
// where missing, row totals recomputed.
func wireItems(rows []crm.Item, resolver ProductResolver) []crm.Item {
	out := make([]crm.Item, len(rows))
	copy(out, rows)
	for i := range out {
		if out[i].ProductID == "" && resolver != nil {
			out[i].ProductID = resolver.ResolveProductID(out[i].ItemNumber)
		}
		out[i].TotalPrice = out[i].UnitPrice.Mul(decimal.NewFromInt(int64(out[i].Quantity)))
	}
	return out
}

// valueOr falls back when the form left the value blank.
func valueOr(v, fallback string) string {
	if trimmed := strings.TrimSpace(v); trimmed != "" {
		return trimmed
	}
	return fallback
}

func sumTotals(rows []crm.Item) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.TotalPrice)
	}
	return total
}

// typedValue coerces a raw form value by field type. Number fields
// return a decimal, everything else the trimmed string; a blank value
// returns nil so optional numbers can be left out of payloads.
func typedValue(cfg fieldcfg.FieldConfig, raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if cfg.Type == fieldcfg.TypeNumber {
		if trimmed == "" {
			return nil, nil
		}
		amount, err := decimal.NewFromString(trimmed)
		if err != nil {
			return nil, err
		}
		return amount, nil
	}
	if trimmed == "" {
		return nil, nil
	}
	return trimmed, nil
}
