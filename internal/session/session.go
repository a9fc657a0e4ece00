// Package session owns open order-editing sessions: the field values,
// item rows, and validation errors of one user working on one order,
// and the submit lifecycle that turns them into upstream writes.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/fieldcfg"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/form"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/items"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/reconcile"
	"github.com/shopspring/decimal"
)

const (
	PhaseEditing    = "editing"
	PhaseSubmitting = "submitting"
	PhaseClosed     = "closed"
)

var (
	ErrNotFound         = errors.New("session not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrNotOwned         = errors.New("order belongs to another vendor")
	ErrClosed           = errors.New("session is closed")
	ErrSubmitInFlight   = errors.New("a submit is already in progress")
	ErrValidationFailed = errors.New("validation failed")
	ErrNotEditable      = errors.New("field is not editable for this role")
	ErrUnknownField     = errors.New("unknown field")
)

// Session is one user's open edit of one order. OrderID is empty while
// a new order is being drafted. All mutation goes through the methods;
// the mutex also serializes the submit lifecycle.
type Session struct {
	ID       string
	Role     string
	VendorID string
	OrderID  string

	mu        sync.Mutex
	phase     string
	fields    fieldcfg.Fields
	state     *form.State
	rows      *items.List
	now       func() time.Time
	lastTouch time.Time
}

func (s *Session) touch() {
	s.lastTouch = s.now()
}

// guard rejects mutation outside the editing phase.
func (s *Session) guard() error {
	switch s.phase {
	case PhaseClosed:
		return ErrClosed
	case PhaseSubmitting:
		return ErrSubmitInFlight
	}
	return nil
}

func (s *Session) Phase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Fields returns the field configuration the session was opened with.
func (s *Session) Fields() fieldcfg.Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(fieldcfg.Fields, len(s.fields))
	copy(out, s.fields)
	return out
}

// Values returns a copy of the current form values.
func (s *Session) Values() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.state.Values))
	for k, v := range s.state.Values {
		out[k] = v
	}
	return out
}

// FieldErrors returns a copy of the current validation errors.
func (s *Session) FieldErrors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.state.Errors))
	for k, v := range s.state.Errors {
		out[k] = v
	}
	return out
}

// SetField stores a new value for a field the session's role may edit
// and clears any stale error on it.
func (s *Session) SetField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	cfg, ok := s.fields.Get(name)
	if !ok {
		return ErrUnknownField
	}
	if !fieldcfg.Applies(cfg.EditableBy, s.Role) {
		return ErrNotEditable
	}
	s.state.SetField(name, value)
	s.touch()
	return nil
}

// AddItem appends a blank item row.
func (s *Session) AddItem() (items.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return items.Item{}, err
	}
	s.touch()
	return s.rows.Add(), nil
}

// RemoveItem deletes an item row; the last row stays.
func (s *Session) RemoveItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.rows.Remove(id); err != nil {
		return err
	}
	s.touch()
	return nil
}

// UpdateItem edits one field of one item row and clears any stale
// error on that cell. The form has no per-role item column rules;
// those only exist for the inline grid.
func (s *Session) UpdateItem(id, field, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if !reconcile.KnownItemField(field) {
		return ErrUnknownField
	}
	idx := s.rows.IndexOf(id)
	if err := s.rows.Update(id, field, raw); err != nil {
		return err
	}
	if idx >= 0 {
		delete(s.state.Errors, fmt.Sprintf("items.%d.%s", idx, field))
	}
	s.touch()
	return nil
}

// BulkAddItems parses pasted item text and appends one row per parsed
// line. The blank row a fresh session starts with is dropped once real
// rows arrive. Returns warnings for the lines it skipped.
func (s *Session) BulkAddItems(text string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return nil, err
	}

	paste, err := items.ParseLines(text)
	if err != nil {
		return nil, err
	}

	blankID := ""
	if rows := s.rows.Items(); len(rows) == 1 && rows[0].IsBlank() {
		blankID = rows[0].ID
	}
	for _, line := range paste.Lines {
		s.rows.AddParsed(line)
	}
	if blankID != "" {
		if err := s.rows.Remove(blankID); err != nil {
			return nil, err
		}
	}

	s.touch()
	return paste.Warnings, nil
}

// Items returns the current item rows.
func (s *Session) Items() []items.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows.Items()
}

// Totals returns the derived item totals: count of units and amount.
func (s *Session) Totals() (int, decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows.TotalQuantity(), s.rows.TotalAmount()
}

// IsCreate reports whether the session drafts a new order.
func (s *Session) IsCreate() bool {
	return s.OrderID == ""
}
