// Package catalog keeps an in-memory snapshot of the product catalog,
// refreshed from the CRM API in the background. Lookups are lock-free
// reads of the current snapshot.
package catalog

import (
	"context"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
)

// Lister is the slice of the CRM API the catalog needs.
type Lister interface {
	ListProducts(ctx context.Context) ([]crm.Product, error)
}

type snapshot struct {
	byNumber map[string]crm.Product
	list     []crm.Product
	index    searchIndex
}

type Cache struct {
	lister Lister
	snap   atomic.Value // snapshot
}

func New(lister Lister) *Cache {
	c := &Cache{lister: lister}
	c.snap.Store(snapshot{byNumber: map[string]crm.Product{}})
	return c
}

// Refresh replaces the snapshot with the current product list.
func (c *Cache) Refresh(ctx context.Context) error {
	products, err := c.lister.ListProducts(ctx)
	if err != nil {
		return err
	}
	byNumber := make(map[string]crm.Product, len(products))
	for _, p := range products {
		byNumber[normalize(p.ItemNumber)] = p
	}
	c.snap.Store(snapshot{byNumber: byNumber, list: products, index: buildIndex(products)})
	return nil
}

// Run refreshes the snapshot on the given interval until ctx is done.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				log.Printf("ERROR: catalog refresh: %v", err)
			}
		}
	}
}

// ByItemNumber looks up a product by its item number, ignoring case
// and surrounding whitespace.
func (c *Cache) ByItemNumber(itemNumber string) (crm.Product, bool) {
	snap := c.snap.Load().(snapshot)
	p, ok := snap.byNumber[normalize(itemNumber)]
	return p, ok
}

// ProductName returns the catalog name for an item number, or "" when
// the number is not in the catalog.
func (c *Cache) ProductName(itemNumber string) string {
	p, ok := c.ByItemNumber(itemNumber)
	if !ok {
		return ""
	}
	return p.Name
}

// ResolveProductID returns the product id for an item number, or ""
// when the number is not in the catalog.
func (c *Cache) ResolveProductID(itemNumber string) string {
	p, ok := c.ByItemNumber(itemNumber)
	if !ok {
		return ""
	}
	return p.ID
}

// Products returns the products in the current snapshot.
func (c *Cache) Products() []crm.Product {
	snap := c.snap.Load().(snapshot)
	out := make([]crm.Product, len(snap.list))
	copy(out, snap.list)
	return out
}

func normalize(itemNumber string) string {
	return strings.ToLower(strings.TrimSpace(itemNumber))
}
