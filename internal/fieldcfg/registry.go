package fieldcfg

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Registry resolves the effective field configuration for an editing
// session. Exactly one source wins per resolution: a caller override,
// the persisted blob, or the built-in defaults. Sources never merge.
type Registry struct {
	store Store
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

// Resolve returns the effective ordered field list, normalized so that
// editability implies visibility. An invalid override is an error (the
// caller supplied it explicitly and should hear about it); a missing or
// malformed persisted configuration falls back to the defaults silently.
func (r *Registry) Resolve(ctx context.Context, override []FieldConfig) (Fields, error) {
	if override != nil {
		if err := ValidateList(override); err != nil {
			return nil, fmt.Errorf("override config: %w", err)
		}
		return Normalize(override), nil
	}

	persisted, err := r.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("field config load failed, using defaults: %v", err)
		}
		return Normalize(Defaults()), nil
	}
	if err := ValidateList(persisted); err != nil {
		log.Printf("persisted field config invalid, using defaults: %v", err)
		return Normalize(Defaults()), nil
	}
	return Normalize(persisted), nil
}

// Persist validates and saves a new configuration list. The list is
// stored as given; normalization happens on every Resolve.
func (r *Registry) Persist(ctx context.Context, cfgs []FieldConfig) error {
	if err := ValidateList(cfgs); err != nil {
		return err
	}
	return r.store.Save(ctx, cfgs)
}
