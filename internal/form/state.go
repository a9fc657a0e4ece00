// Package form holds the editable field values of an order session and
// validates them against the resolved field configuration.
package form

import (
	"time"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/fieldcfg"
)

// State is the live value/error map of one editing session. Values are
// kept as strings the way inputs produce them; typing happens at
// validation and submit time.
type State struct {
	Values map[string]string
	Errors map[string]string
}

// NewState builds the initial state for the given field list. A nil
// order is a create: number fields start at "0", everything else blank.
func NewState(fields fieldcfg.Fields, order *crm.Order) *State {
	s := &State{
		Values: make(map[string]string, len(fields)),
		Errors: map[string]string{},
	}
	for _, cfg := range fields {
		value := ""
		if order != nil {
			value = OrderValue(order, cfg.Name)
		}
		if value == "" && cfg.Type == fieldcfg.TypeNumber {
			value = "0"
		}
		s.Values[cfg.Name] = value
	}
	return s
}

// SetField stores a new raw value and clears any stale error for the
// field, so a correction is reflected immediately.
func (s *State) SetField(name, value string) {
	s.Values[name] = value
	delete(s.Errors, name)
}

// SetErrors replaces the error map wholesale after a validation pass.
func (s *State) SetErrors(errs map[string]string) {
	if errs == nil {
		errs = map[string]string{}
	}
	s.Errors = errs
}

// Valid reports whether the last validation pass found no errors.
func (s *State) Valid() bool {
	return len(s.Errors) == 0
}

// OrderValue extracts the form value of a named field from a persisted
// order. Unknown names yield "".
func OrderValue(order *crm.Order, name string) string {
	switch name {
	case "vendorId":
		return order.Vendor.ID
	case "status":
		return order.Status
	case "priceApprovalStatus":
		return order.PriceApprovalStatus
	case "price":
		return order.Price.String()
	case "confirmationDate":
		return NormalizeDate(order.ConfirmationDate)
	case "invoiceNumber":
		return order.InvoiceNumber
	case "transferAmount":
		return order.TransferAmount.String()
	case "shippingDate":
		return NormalizeDate(order.ShippingDate)
	case "arrivalDate":
		return NormalizeDate(order.ArrivalDate)
	case "notes":
		return order.Notes
	}
	return ""
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// NormalizeDate reduces a stored date to YYYY-MM-DD for date inputs.
// Values that parse under none of the accepted layouts normalize to "".
func NormalizeDate(raw string) string {
	if raw == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}
