package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/enum"
)

// API is the slice of the CRM client the reconciler drives.
type API interface {
	CreateOrder(ctx context.Context, payload *crm.OrderPayload) (crm.Order, error)
	UpdateOrder(ctx context.Context, id string, changes any) (crm.Order, error)
	GetOrder(ctx context.Context, id string) (crm.Order, error)
	ListOrders(ctx context.Context) ([]crm.Order, error)
}

// Notifier publishes order change events to connected clients. A
// successful Apply notifies exactly once.
type Notifier interface {
	OrderChanged(eventType string, order *crm.Order)
}

// Applier is the narrow surface sessions and the grid hand updates to.
type Applier interface {
	Apply(ctx context.Context, update PendingUpdate) (crm.Order, error)
}

// Reconciler settles pending updates against the CRM API. Updates to
// existing orders land in the cache first so readers see them
// immediately; the canonical order replaces the optimistic version on
// success, and a refetch restores truth on failure.
type Reconciler struct {
	api      API
	cache    *Cache
	notifier Notifier
}

func New(api API, cache *Cache, notifier Notifier) *Reconciler {
	return &Reconciler{api: api, cache: cache, notifier: notifier}
}

func (r *Reconciler) Cache() *Cache {
	return r.cache
}

// Apply settles one pending update.
func (r *Reconciler) Apply(ctx context.Context, update PendingUpdate) (crm.Order, error) {
	if update.IsCreate() {
		return r.create(ctx, update)
	}
	return r.update(ctx, update)
}

func (r *Reconciler) create(ctx context.Context, update PendingUpdate) (crm.Order, error) {
	if update.Payload == nil {
		return crm.Order{}, errors.New("create without payload")
	}
	order, err := r.api.CreateOrder(ctx, update.Payload)
	if err != nil {
		return crm.Order{}, fmt.Errorf("create order: %w", err)
	}
	r.cache.Put(order)
	r.notify(enum.EventOrderCreated, order)
	return order, nil
}

func (r *Reconciler) update(ctx context.Context, update PendingUpdate) (crm.Order, error) {
	var changes any
	if update.Payload != nil {
		changes = *update.Payload
		r.cache.ApplyPayload(update.OrderID, update.Payload)
	} else {
		changes = update.Patch
		r.cache.ApplyPatch(update.OrderID, update.Patch)
	}

	canonical, err := r.api.UpdateOrder(ctx, update.OrderID, changes)
	if err != nil {
		if _, refetchErr := r.Refetch(ctx, update.OrderID); refetchErr != nil {
			log.Printf("ERROR: refetch after failed update of %s: %v", update.OrderID, refetchErr)
		}
		return crm.Order{}, fmt.Errorf("update order %s: %w", update.OrderID, err)
	}

	r.cache.Put(canonical)
	r.notify(enum.EventOrderUpdated, canonical)
	return canonical, nil
}

// Refetch replaces the cached order with the upstream version. An
// order that no longer exists upstream is dropped from the cache.
func (r *Reconciler) Refetch(ctx context.Context, id string) (crm.Order, error) {
	order, err := r.api.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			r.cache.Delete(id)
		}
		return crm.Order{}, err
	}
	r.cache.Put(order)
	return order, nil
}

// SyncAll replaces the cache with the full upstream order list.
func (r *Reconciler) SyncAll(ctx context.Context) error {
	orders, err := r.api.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}
	r.cache.ReplaceAll(orders)
	return nil
}

func (r *Reconciler) notify(eventType string, order crm.Order) {
	if r.notifier == nil {
		return
	}
	r.notifier.OrderChanged(eventType, &order)
}
