package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/enum"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/fieldcfg"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/form"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/items"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/reconcile"
	"github.com/google/uuid"
)

// Catalog supplies product lookups: names for item auto-fill while
// editing, ids for resolution at submit time.
type Catalog interface {
	ProductName(itemNumber string) string
	ResolveProductID(itemNumber string) string
}

// Manager opens, tracks, and submits editing sessions. Each session is
// independent; the manager only guards the map.
type Manager struct {
	registry *fieldcfg.Registry
	catalog  Catalog
	applier  reconcile.Applier
	cache    *reconcile.Cache

	mu       sync.RWMutex
	sessions map[string]*Session

	nowFunc func() time.Time
}

func NewManager(registry *fieldcfg.Registry, catalog Catalog, applier reconcile.Applier, cache *reconcile.Cache) *Manager {
	return &Manager{
		registry: registry,
		catalog:  catalog,
		applier:  applier,
		cache:    cache,
		sessions: make(map[string]*Session),
		nowFunc:  time.Now,
	}
}

// Open starts a session for the given role. An empty orderID drafts a
// new order; otherwise the cached order seeds the form and item rows.
// Vendors can only open their own orders.
func (m *Manager) Open(ctx context.Context, role, vendorID, orderID string) (*Session, error) {
	fields, err := m.registry.Resolve(ctx, nil)
	if err != nil {
		return nil, err
	}

	var order *crm.Order
	if orderID != "" {
		cached, ok := m.cache.Get(orderID)
		if !ok {
			return nil, ErrOrderNotFound
		}
		if role == enum.RoleVendor && cached.Vendor.ID != vendorID {
			return nil, ErrNotOwned
		}
		order = &cached
	}

	state := form.NewState(fields, order)
	var rows *items.List
	if order != nil {
		rows = items.FromItems(m.catalog, order.Items)
	} else {
		rows = items.NewList(m.catalog)
		state.SetField("status", enum.OrderStatusPending)
		state.SetField("priceApprovalStatus", enum.PriceApprovalPending)
	}

	s := &Session{
		ID:       uuid.NewString(),
		Role:     role,
		VendorID: vendorID,
		OrderID:  orderID,
		phase:    PhaseEditing,
		fields:   fields,
		state:    state,
		rows:     rows,
		now:      m.nowFunc,
	}
	s.touch()

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns the open session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Close abandons an editing session. A session mid-submit cannot be
// closed out from under the round trip.
func (m *Manager) Close(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.guard(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.phase = PhaseClosed
	s.mu.Unlock()

	m.remove(id)
	return nil
}

// Submit validates the session and settles it upstream. Validation
// failures keep the session editing with errors set. A failed round
// trip also returns the session to editing with its values intact, so
// nothing typed is lost. Success closes the session.
func (m *Manager) Submit(ctx context.Context, id string) (crm.Order, error) {
	s, err := m.Get(id)
	if err != nil {
		return crm.Order{}, err
	}

	s.mu.Lock()
	if err := s.guard(); err != nil {
		s.mu.Unlock()
		return crm.Order{}, err
	}

	errs := form.Validate(s.fields, s.Role, s.state.Values, s.rows.Items())
	if len(errs) > 0 {
		s.state.SetErrors(errs)
		s.mu.Unlock()
		return crm.Order{}, ErrValidationFailed
	}
	s.state.SetErrors(nil)
	s.phase = PhaseSubmitting
	s.touch()

	values := make(map[string]string, len(s.state.Values))
	for k, v := range s.state.Values {
		values[k] = v
	}
	rows := s.rows.CRMItems()
	fields := s.fields
	role, vendorID, orderID := s.Role, s.VendorID, s.OrderID
	s.mu.Unlock()

	update, err := buildUpdate(role, vendorID, orderID, fields, values, rows, m.catalog)
	if err != nil {
		m.reopen(s)
		return crm.Order{}, err
	}

	order, err := m.applier.Apply(ctx, update)

	s.mu.Lock()
	if err != nil {
		s.phase = PhaseEditing
		s.mu.Unlock()
		return crm.Order{}, err
	}
	s.phase = PhaseClosed
	s.mu.Unlock()

	m.remove(id)
	return order, nil
}

func buildUpdate(role, vendorID, orderID string, fields fieldcfg.Fields, values map[string]string, rows []crm.Item, catalog Catalog) (reconcile.PendingUpdate, error) {
	switch {
	case orderID == "" && role == enum.RoleAdmin:
		return reconcile.BuildAdminCreate(values, rows, catalog)
	case orderID == "":
		return reconcile.BuildVendorCreate(vendorID, values, rows)
	case role == enum.RoleAdmin:
		return reconcile.BuildAdminFullUpdate(orderID, values, rows, catalog)
	default:
		return reconcile.BuildVendorUpdate(orderID, fields, values, rows)
	}
}

func (m *Manager) reopen(s *Session) {
	s.mu.Lock()
	if s.phase == PhaseSubmitting {
		s.phase = PhaseEditing
	}
	s.mu.Unlock()
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Run sweeps sessions that have not been touched within ttl, so
// abandoned browser tabs do not pin memory. It returns when ctx ends.
func (m *Manager) Run(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ttl)
		}
	}
}

func (m *Manager) sweep(ttl time.Duration) {
	cutoff := m.nowFunc().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.phase == PhaseEditing && s.lastTouch.Before(cutoff)
		if idle {
			s.phase = PhaseClosed
		}
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			log.Printf("session %s expired after %s idle", id, ttl)
		}
	}
}
