// Package grid implements inline cell editing over the order list: one
// cell at a time moves from display to editing, then commits a scoped
// patch or cancels back without touching anything else on the row.
package grid

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/fieldcfg"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/form"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/reconcile"
)

var (
	ErrNotEditing    = errors.New("no cell is being edited")
	ErrOrderNotFound = errors.New("order not found")
	ErrUnknownColumn = errors.New("unknown column")
	ErrNotEditable   = errors.New("column is not editable for this role")
	ErrBadItemIndex  = errors.New("item index out of range")
)

// ValidationError is a commit rejected by field validation; the cell
// stays in editing state so the value can be corrected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

const (
	StateDisplay = iota
	StateEditing
)

// CellRef addresses one editable cell: a top-level order field, or an
// item column when ItemField is set.
type CellRef struct {
	OrderID   string
	Field     string
	ItemIndex int
	ItemField string
}

func (r CellRef) isItem() bool {
	return r.ItemField != ""
}

// Editor drives the edit state of a grid for one user. Starting an
// edit on a new cell abandons any cell left in editing state.
type Editor struct {
	role     string
	fields   fieldcfg.Fields
	cache    *reconcile.Cache
	applier  reconcile.Applier
	resolver reconcile.ItemResolver

	mu    sync.Mutex
	state int
	ref   CellRef
	value string
}

func NewEditor(role string, fields fieldcfg.Fields, cache *reconcile.Cache, applier reconcile.Applier, resolver reconcile.ItemResolver) *Editor {
	return &Editor{
		role:     role,
		fields:   fields,
		cache:    cache,
		applier:  applier,
		resolver: resolver,
	}
}

// Begin puts the cell into editing state and returns its current value
// as the initial input content.
func (e *Editor) Begin(ref CellRef) (string, error) {
	order, ok := e.cache.Get(ref.OrderID)
	if !ok {
		return "", ErrOrderNotFound
	}
	value, err := e.cellValue(order, ref)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	e.state = StateEditing
	e.ref = ref
	e.value = value
	e.mu.Unlock()
	return value, nil
}

// Set replaces the in-progress value of the editing cell.
func (e *Editor) Set(value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateEditing {
		return ErrNotEditing
	}
	e.value = value
	return nil
}

// Cancel abandons the in-progress edit. Cancelling with no edit in
// flight is a no-op.
func (e *Editor) Cancel() {
	e.mu.Lock()
	e.state = StateDisplay
	e.ref = CellRef{}
	e.value = ""
	e.mu.Unlock()
}

// Editing returns the cell and value currently being edited.
func (e *Editor) Editing() (CellRef, string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ref, e.value, e.state == StateEditing
}

// Commit validates the in-progress value and applies it as a scoped
// patch. A validation failure leaves the cell editing; an upstream
// failure or success returns the cell to display state.
func (e *Editor) Commit(ctx context.Context) (crm.Order, error) {
	e.mu.Lock()
	if e.state != StateEditing {
		e.mu.Unlock()
		return crm.Order{}, ErrNotEditing
	}
	ref, value := e.ref, e.value
	e.mu.Unlock()

	return e.commit(ctx, ref, value)
}

// CommitSelection begins and commits a cell in one step. Select cells
// use it to save the moment a choice is made; picking the custom item
// number sentinel fails validation, which keeps the cell editing so a
// hand-typed number can follow.
func (e *Editor) CommitSelection(ctx context.Context, ref CellRef, value string) (crm.Order, error) {
	if _, err := e.Begin(ref); err != nil {
		return crm.Order{}, err
	}
	if err := e.Set(value); err != nil {
		return crm.Order{}, err
	}
	return e.commit(ctx, ref, value)
}

func (e *Editor) commit(ctx context.Context, ref CellRef, value string) (crm.Order, error) {
	update, err := e.buildUpdate(ref, value)
	if err != nil {
		return crm.Order{}, err
	}

	order, err := e.applier.Apply(ctx, update)

	e.mu.Lock()
	if e.state == StateEditing && e.ref == ref {
		e.state = StateDisplay
		e.ref = CellRef{}
		e.value = ""
	}
	e.mu.Unlock()

	if err != nil {
		return crm.Order{}, err
	}
	return order, nil
}

func (e *Editor) buildUpdate(ref CellRef, value string) (reconcile.PendingUpdate, error) {
	if ref.isItem() {
		if msg := form.ValidateItemField(ref.ItemField, value); msg != "" {
			return reconcile.PendingUpdate{}, &ValidationError{Field: ref.ItemField, Message: msg}
		}
		order, ok := e.cache.Get(ref.OrderID)
		if !ok {
			return reconcile.PendingUpdate{}, ErrOrderNotFound
		}
		if ref.ItemIndex < 0 || ref.ItemIndex >= len(order.Items) {
			return reconcile.PendingUpdate{}, ErrBadItemIndex
		}
		current := order.Items[ref.ItemIndex]
		return reconcile.BuildItemPatch(ref.OrderID, ref.ItemIndex, ref.ItemField, value, current, e.role, e.resolver)
	}

	cfg, ok := e.fields.Get(ref.Field)
	if !ok {
		return reconcile.PendingUpdate{}, ErrUnknownColumn
	}
	if msg := form.ValidateField(cfg, value); msg != "" {
		return reconcile.PendingUpdate{}, &ValidationError{Field: ref.Field, Message: msg}
	}
	return reconcile.BuildFieldPatch(ref.OrderID, cfg, value)
}

// cellValue reads the current content of a cell, which becomes the
// initial editing value.
func (e *Editor) cellValue(order crm.Order, ref CellRef) (string, error) {
	if ref.isItem() {
		if !reconcile.KnownItemField(ref.ItemField) {
			return "", ErrUnknownColumn
		}
		if !reconcile.CanEditItemField(ref.ItemField, e.role) {
			return "", ErrNotEditable
		}
		if ref.ItemIndex < 0 || ref.ItemIndex >= len(order.Items) {
			return "", ErrBadItemIndex
		}
		item := order.Items[ref.ItemIndex]
		switch ref.ItemField {
		case "quantity":
			return strconv.Itoa(item.Quantity), nil
		case "unitPrice":
			return item.UnitPrice.String(), nil
		case "itemNumber":
			return item.ItemNumber, nil
		case "productName":
			return item.ProductName, nil
		}
		return "", ErrUnknownColumn
	}

	cfg, ok := e.fields.Get(ref.Field)
	if !ok {
		return "", ErrUnknownColumn
	}
	if !fieldcfg.Applies(cfg.EditableBy, e.role) {
		return "", ErrNotEditable
	}
	return form.OrderValue(&order, ref.Field), nil
}
