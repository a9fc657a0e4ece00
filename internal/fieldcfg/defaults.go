package fieldcfg

import "github.com/shopspring/decimal"

// Defaults returns the built-in order field list used when nothing has
// been persisted. The order here is the render order on the edit form.
func Defaults() []FieldConfig {
	return []FieldConfig{
		{
			Name:        "vendorId",
			Label:       "Vendor",
			Type:        TypeSelect,
			Required:    true,
			EditableBy:  AudienceAdmin,
			VisibleTo:   AudienceAdmin,
			Placeholder: "Select vendor",
		},
		{
			Name:       "status",
			Label:      "Status",
			Type:       TypeSelect,
			Required:   true,
			EditableBy: AudienceAdmin,
			VisibleTo:  AudienceBoth,
			Options: []Option{
				{Value: "pending", Label: "Pending"},
				{Value: "confirmed", Label: "Confirmed"},
				{Value: "shipped", Label: "Shipped"},
				{Value: "delivered", Label: "Delivered"},
				{Value: "cancelled", Label: "Cancelled"},
			},
		},
		{
			Name:       "priceApprovalStatus",
			Label:      "Price Approval",
			Type:       TypeSelect,
			EditableBy: AudienceAdmin,
			VisibleTo:  AudienceBoth,
			Options: []Option{
				{Value: "pending", Label: "Pending"},
				{Value: "approved", Label: "Approved"},
				{Value: "rejected", Label: "Rejected"},
			},
		},
		{
			Name:       "price",
			Label:      "Price",
			Type:       TypeNumber,
			EditableBy: AudienceVendor,
			VisibleTo:  AudienceBoth,
			Min:        decimalPtr("0"),
		},
		{
			Name:       "confirmationDate",
			Label:      "Confirmation Date",
			Type:       TypeDate,
			EditableBy: AudienceVendor,
			VisibleTo:  AudienceBoth,
		},
		{
			Name:        "invoiceNumber",
			Label:       "Invoice Number",
			Type:        TypeText,
			EditableBy:  AudienceVendor,
			VisibleTo:   AudienceBoth,
			Placeholder: "INV-",
		},
		{
			Name:       "transferAmount",
			Label:      "Transfer Amount",
			Type:       TypeNumber,
			EditableBy: AudienceAdmin,
			VisibleTo:  AudienceAdmin,
			Min:        decimalPtr("0"),
		},
		{
			Name:       "shippingDate",
			Label:      "Shipping Date",
			Type:       TypeDate,
			EditableBy: AudienceVendor,
			VisibleTo:  AudienceBoth,
		},
		{
			Name:       "arrivalDate",
			Label:      "Arrival Date",
			Type:       TypeDate,
			EditableBy: AudienceBoth,
			VisibleTo:  AudienceBoth,
		},
		{
			Name:        "notes",
			Label:       "Notes",
			Type:        TypeTextarea,
			EditableBy:  AudienceBoth,
			VisibleTo:   AudienceBoth,
			Placeholder: "Internal notes",
		},
	}
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
