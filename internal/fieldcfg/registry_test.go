package fieldcfg_test

import (
	"context"
	"errors"
	"testing"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/fieldcfg"
	"github.com/shopspring/decimal"
)

// --- Mock store ---

type mockStore struct {
	loadFn func(ctx context.Context) ([]fieldcfg.FieldConfig, error)
	saveFn func(ctx context.Context, cfgs []fieldcfg.FieldConfig) error
}

func (m *mockStore) Load(ctx context.Context) ([]fieldcfg.FieldConfig, error) {
	return m.loadFn(ctx)
}

func (m *mockStore) Save(ctx context.Context, cfgs []fieldcfg.FieldConfig) error {
	return m.saveFn(ctx, cfgs)
}

func textField(name string) fieldcfg.FieldConfig {
	return fieldcfg.FieldConfig{
		Name:       name,
		Label:      name,
		Type:       fieldcfg.TypeText,
		EditableBy: fieldcfg.AudienceBoth,
		VisibleTo:  fieldcfg.AudienceBoth,
	}
}

// --- ValidateList ---

func TestValidateList(t *testing.T) {
	min := decimal.RequireFromString("10")
	max := decimal.RequireFromString("5")

	testCases := []struct {
		name    string
		cfgs    []fieldcfg.FieldConfig
		wantErr bool
	}{
		{"defaults are valid", fieldcfg.Defaults(), false},
		{"empty list", nil, true},
		{"missing label", []fieldcfg.FieldConfig{{Name: "a", Type: "text", EditableBy: "both", VisibleTo: "both"}}, true},
		{"unknown type", []fieldcfg.FieldConfig{{Name: "a", Label: "A", Type: "checkbox", EditableBy: "both", VisibleTo: "both"}}, true},
		{"unknown audience", []fieldcfg.FieldConfig{{Name: "a", Label: "A", Type: "text", EditableBy: "manager", VisibleTo: "both"}}, true},
		{"duplicate names", []fieldcfg.FieldConfig{textField("a"), textField("a")}, true},
		{"min above max", []fieldcfg.FieldConfig{{Name: "n", Label: "N", Type: "number", EditableBy: "both", VisibleTo: "both", Min: &min, Max: &max}}, true},
		{"bounds on text field", []fieldcfg.FieldConfig{{Name: "a", Label: "A", Type: "text", EditableBy: "both", VisibleTo: "both", Min: &min}}, true},
		{"options on text field", []fieldcfg.FieldConfig{{Name: "a", Label: "A", Type: "text", EditableBy: "both", VisibleTo: "both", Options: []fieldcfg.Option{{Value: "x", Label: "X"}}}}, true},
		{"option missing label", []fieldcfg.FieldConfig{{Name: "s", Label: "S", Type: "select", EditableBy: "both", VisibleTo: "both", Options: []fieldcfg.Option{{Value: "x"}}}}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := fieldcfg.ValidateList(tc.cfgs)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateList error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

// --- Resolve ---

func TestResolveOverrideWins(t *testing.T) {
	store := &mockStore{
		loadFn: func(ctx context.Context) ([]fieldcfg.FieldConfig, error) {
			t.Fatal("store should not be consulted when an override is supplied")
			return nil, nil
		},
	}
	reg := fieldcfg.NewRegistry(store)

	fields, err := reg.Resolve(context.Background(), []fieldcfg.FieldConfig{textField("only")})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(fields) != 1 || fields[0].Name != "only" {
		t.Errorf("fields = %v, want [only]", names(fields))
	}
}

func TestResolveInvalidOverrideIsAnError(t *testing.T) {
	reg := fieldcfg.NewRegistry(fieldcfg.NewMemoryStore())

	_, err := reg.Resolve(context.Background(), []fieldcfg.FieldConfig{{Name: "bad"}})
	if err == nil {
		t.Fatal("expected error for invalid override")
	}
}

func TestResolvePersistedWinsOverDefaults(t *testing.T) {
	store := fieldcfg.NewMemoryStore()
	if err := store.Save(context.Background(), []fieldcfg.FieldConfig{textField("persisted")}); err != nil {
		t.Fatalf("save: %v", err)
	}
	reg := fieldcfg.NewRegistry(store)

	fields, err := reg.Resolve(context.Background(), nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(fields) != 1 || fields[0].Name != "persisted" {
		t.Errorf("fields = %v, want [persisted]", names(fields))
	}
}

func TestResolveFallsBackToDefaultsWhenNothingPersisted(t *testing.T) {
	reg := fieldcfg.NewRegistry(fieldcfg.NewMemoryStore())

	fields, err := reg.Resolve(context.Background(), nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(fields) != len(fieldcfg.Defaults()) {
		t.Errorf("got %d fields, want the %d defaults", len(fields), len(fieldcfg.Defaults()))
	}
}

func TestResolveFallsBackOnStoreError(t *testing.T) {
	store := &mockStore{
		loadFn: func(ctx context.Context) ([]fieldcfg.FieldConfig, error) {
			return nil, errors.New("redis gone")
		},
	}
	reg := fieldcfg.NewRegistry(store)

	fields, err := reg.Resolve(context.Background(), nil)
	if err != nil {
		t.Fatalf("resolve should not surface store errors, got %v", err)
	}
	if len(fields) != len(fieldcfg.Defaults()) {
		t.Errorf("got %d fields, want the defaults", len(fields))
	}
}

func TestResolveFallsBackOnMalformedPersisted(t *testing.T) {
	store := &mockStore{
		loadFn: func(ctx context.Context) ([]fieldcfg.FieldConfig, error) {
			// structurally invalid: unknown type slipped into the blob
			return []fieldcfg.FieldConfig{{Name: "a", Label: "A", Type: "checkbox", EditableBy: "both", VisibleTo: "both"}}, nil
		},
	}
	reg := fieldcfg.NewRegistry(store)

	fields, err := reg.Resolve(context.Background(), nil)
	if err != nil {
		t.Fatalf("resolve should fall back silently, got %v", err)
	}
	if len(fields) != len(fieldcfg.Defaults()) {
		t.Errorf("got %d fields, want the defaults", len(fields))
	}
}

// --- Persist ---

func TestPersistRejectsInvalid(t *testing.T) {
	saved := false
	store := &mockStore{
		saveFn: func(ctx context.Context, cfgs []fieldcfg.FieldConfig) error {
			saved = true
			return nil
		},
	}
	reg := fieldcfg.NewRegistry(store)

	if err := reg.Persist(context.Background(), []fieldcfg.FieldConfig{{Name: "bad"}}); err == nil {
		t.Fatal("expected validation error")
	}
	if saved {
		t.Error("invalid configuration must not reach the store")
	}
}

func TestPersistSavesValid(t *testing.T) {
	var got []fieldcfg.FieldConfig
	store := &mockStore{
		saveFn: func(ctx context.Context, cfgs []fieldcfg.FieldConfig) error {
			got = cfgs
			return nil
		},
	}
	reg := fieldcfg.NewRegistry(store)

	if err := reg.Persist(context.Background(), fieldcfg.Defaults()); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if len(got) != len(fieldcfg.Defaults()) {
		t.Errorf("store received %d fields, want %d", len(got), len(fieldcfg.Defaults()))
	}
}

// --- MemoryStore ---

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := fieldcfg.NewMemoryStore()

	if _, err := store.Load(context.Background()); !errors.Is(err, fieldcfg.ErrNotFound) {
		t.Fatalf("empty store: got %v, want ErrNotFound", err)
	}

	want := []fieldcfg.FieldConfig{textField("a"), textField("b")}
	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "b" {
		t.Errorf("loaded %v, want [a b]", got)
	}
}
