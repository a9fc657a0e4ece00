package fieldcfg

import (
	"github.com/shopspring/decimal"
)

// Field input types understood by the form engine.
const (
	TypeText     = "text"
	TypeNumber   = "number"
	TypeDate     = "date"
	TypeSelect   = "select"
	TypeTextarea = "textarea"
)

// Audience values for VisibleTo / EditableBy. Role strings from JWT
// claims use the same values, so an audience can be checked against a
// role directly.
const (
	AudienceAdmin  = "admin"
	AudienceVendor = "vendor"
	AudienceBoth   = "both"
)

// Option is one entry in a select field's option list.
type Option struct {
	Value string `json:"value" validate:"required"`
	Label string `json:"label" validate:"required"`
}

// FieldConfig describes a single order form field: input type, label,
// which role may see or edit it, and numeric bounds for number fields.
type FieldConfig struct {
	Name        string           `json:"name" validate:"required"`
	Label       string           `json:"label" validate:"required"`
	Type        string           `json:"type" validate:"required,oneof=text number date select textarea"`
	Required    bool             `json:"required"`
	EditableBy  string           `json:"editableBy" validate:"required,oneof=admin vendor both"`
	VisibleTo   string           `json:"visibleTo" validate:"required,oneof=admin vendor both"`
	Options     []Option         `json:"options,omitempty" validate:"omitempty,dive"`
	Min         *decimal.Decimal `json:"min,omitempty"`
	Max         *decimal.Decimal `json:"max,omitempty"`
	Placeholder string           `json:"placeholder,omitempty"`
}

// Fields is an ordered field-configuration snapshot.
type Fields []FieldConfig

// Applies reports whether an audience value covers the given role.
func Applies(audience, role string) bool {
	return audience == AudienceBoth || audience == role
}

// VisibleTo returns the fields the given role may see, in order.
func (f Fields) VisibleTo(role string) Fields {
	var out Fields
	for _, cfg := range f {
		if Applies(cfg.VisibleTo, role) {
			out = append(out, cfg)
		}
	}
	return out
}

// EditableBy returns the fields the given role may edit, in order.
func (f Fields) EditableBy(role string) Fields {
	var out Fields
	for _, cfg := range f {
		if Applies(cfg.EditableBy, role) {
			out = append(out, cfg)
		}
	}
	return out
}

// Get returns the config with the given name.
func (f Fields) Get(name string) (FieldConfig, bool) {
	for _, cfg := range f {
		if cfg.Name == name {
			return cfg, true
		}
	}
	return FieldConfig{}, false
}

func (f Fields) CanSee(name, role string) bool {
	cfg, ok := f.Get(name)
	return ok && Applies(cfg.VisibleTo, role)
}

func (f Fields) CanEdit(name, role string) bool {
	cfg, ok := f.Get(name)
	return ok && Applies(cfg.EditableBy, role)
}

// Normalize widens visibility so that a role allowed to edit a field is
// always allowed to see it. Editability and visibility arrive as
// independent flags; every accepted configuration passes through here so
// the rest of the engine can rely on editable ⇒ visible.
func Normalize(cfgs []FieldConfig) Fields {
	out := make(Fields, len(cfgs))
	copy(out, cfgs)
	for i := range out {
		out[i].VisibleTo = widenVisibility(out[i])
	}
	return out
}

func widenVisibility(cfg FieldConfig) string {
	for _, role := range []string{AudienceAdmin, AudienceVendor} {
		if Applies(cfg.EditableBy, role) && !Applies(cfg.VisibleTo, role) {
			return AudienceBoth
		}
	}
	return cfg.VisibleTo
}
