package fieldcfg

import (
	"errors"
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"
)

var (
	ErrEmptyConfig    = errors.New("field configuration is empty")
	ErrDuplicateField = errors.New("duplicate field name")
)

var validate = newValidator()

// newValidator returns a configured validator with struct-level checks
// that tags alone cannot express.
func newValidator() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterStructValidation(fieldConfigStructValidation, FieldConfig{})
	return v
}

// fieldConfigStructValidation enforces the cross-field rules: numeric
// bounds must be ordered, and a select field needs at least the shape of
// an option list (an empty list is allowed for selects whose options are
// supplied at render time, e.g. the vendor picker).
func fieldConfigStructValidation(sl validatorv10.StructLevel) {
	cfg := sl.Current().Interface().(FieldConfig)

	if cfg.Min != nil && cfg.Max != nil && cfg.Min.GreaterThan(*cfg.Max) {
		sl.ReportError(cfg.Min, "min", "Min", "min_not_above_max", "")
	}
	if cfg.Type != TypeNumber && (cfg.Min != nil || cfg.Max != nil) {
		sl.ReportError(cfg.Type, "type", "Type", "bounds_require_number", "")
	}
	if cfg.Type != TypeSelect && len(cfg.Options) > 0 {
		sl.ReportError(cfg.Type, "type", "Type", "options_require_select", "")
	}
}

// ValidateList checks a configuration list structurally before it is
// accepted from a caller override or from the persisted store.
func ValidateList(cfgs []FieldConfig) error {
	if len(cfgs) == 0 {
		return ErrEmptyConfig
	}
	seen := make(map[string]bool, len(cfgs))
	for i, cfg := range cfgs {
		if err := validate.Struct(cfg); err != nil {
			return fmt.Errorf("field[%d] %q: %w", i, cfg.Name, err)
		}
		if seen[cfg.Name] {
			return fmt.Errorf("field[%d]: %w: %q", i, ErrDuplicateField, cfg.Name)
		}
		seen[cfg.Name] = true
	}
	return nil
}
