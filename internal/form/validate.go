package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/enum"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/fieldcfg"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/items"
	"github.com/shopspring/decimal"
)

const (
	msgCustomItemNumber   = "enter a custom item number"
	msgItemNumberRequired = "item number is required"
	msgProductNameBlank   = "product name is required"
	msgQuantityPositive   = "quantity must be greater than 0"
	msgQuantityWhole      = "quantity must be a whole number"
	msgUnitPriceAmount    = "unit price must be a valid amount"
	msgUnitPriceNegative  = "unit price cannot be negative"
)

// deferredForAdmin lists fields the vendor fills in over the order's
// life. An admin saving the form is not blocked while they are blank.
var deferredForAdmin = map[string]bool{
	"price":            true,
	"confirmationDate": true,
	"invoiceNumber":    true,
	"transferAmount":   true,
	"shippingDate":     true,
	"arrivalDate":      true,
}

// ValidateField checks one raw value against its configuration and
// returns an error message, or "" when the value passes. Checks run in
// a fixed order: required, numeric shape, lower bound, upper bound.
func ValidateField(cfg fieldcfg.FieldConfig, raw string) string {
	trimmed := strings.TrimSpace(raw)
	if cfg.Required && trimmed == "" {
		return cfg.Label + " is required"
	}
	if trimmed == "" {
		return ""
	}
	if cfg.Type == fieldcfg.TypeNumber {
		n, err := decimal.NewFromString(trimmed)
		if err != nil {
			return cfg.Label + " must be a valid number"
		}
		if cfg.Min != nil && n.LessThan(*cfg.Min) {
			return fmt.Sprintf("%s must be at least %s", cfg.Label, cfg.Min)
		}
		if cfg.Max != nil && n.GreaterThan(*cfg.Max) {
			return fmt.Sprintf("%s must be at most %s", cfg.Label, cfg.Max)
		}
	}
	return ""
}

// Validate runs the full-form pass for a role: every field the role can
// edit, plus the item rows. The returned map is keyed by field name, or
// by items.<index>.<field> for item errors; an empty map means valid.
func Validate(fields fieldcfg.Fields, role string, values map[string]string, rows []items.Item) map[string]string {
	errs := map[string]string{}

	for _, cfg := range fields {
		if !fieldcfg.Applies(cfg.EditableBy, role) {
			continue
		}
		if role == enum.RoleAdmin && deferredForAdmin[cfg.Name] {
			continue
		}
		if msg := ValidateField(cfg, values[cfg.Name]); msg != "" {
			errs[cfg.Name] = msg
		}
	}

	for i, row := range rows {
		if row.ItemNumber == items.CustomSentinel {
			errs[itemKey(i, "itemNumber")] = msgCustomItemNumber
			continue
		}
		if strings.TrimSpace(row.ItemNumber) == "" {
			errs[itemKey(i, "itemNumber")] = msgItemNumberRequired
		}
		if strings.TrimSpace(row.ProductName) == "" {
			errs[itemKey(i, "productName")] = msgProductNameBlank
		}
		if row.Quantity <= 0 {
			errs[itemKey(i, "quantity")] = msgQuantityPositive
		}
	}

	return errs
}

// ValidateItemField checks a single item cell value, for inline edits
// that commit one cell at a time.
func ValidateItemField(field, raw string) string {
	trimmed := strings.TrimSpace(raw)
	switch field {
	case "itemNumber":
		if trimmed == "" {
			return msgItemNumberRequired
		}
		if trimmed == items.CustomSentinel {
			return msgCustomItemNumber
		}
	case "productName":
		if trimmed == "" {
			return msgProductNameBlank
		}
	case "quantity":
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return msgQuantityWhole
		}
		if n <= 0 {
			return msgQuantityPositive
		}
	case "unitPrice":
		n, err := decimal.NewFromString(trimmed)
		if err != nil {
			return msgUnitPriceAmount
		}
		if n.IsNegative() {
			return msgUnitPriceNegative
		}
	}
	return ""
}

func itemKey(index int, field string) string {
	return fmt.Sprintf("items.%d.%s", index, field)
}
