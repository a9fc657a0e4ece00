package reconcile

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
	"github.com/shopspring/decimal"
)

// Cache is the locally known set of orders. Reads serve the list and
// detail endpoints; writes come from optimistic edits, canonical
// responses, and change-bus refreshes.
type Cache struct {
	mu     sync.RWMutex
	orders map[string]*crm.Order
}

func NewCache() *Cache {
	return &Cache{orders: make(map[string]*crm.Order)}
}

// Get returns a copy of the cached order.
func (c *Cache) Get(id string) (crm.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.orders[id]
	if !ok {
		return crm.Order{}, false
	}
	return cloneOrder(*o), true
}

// Put stores a copy of the order, replacing any cached version.
func (c *Cache) Put(order crm.Order) {
	cp := cloneOrder(order)
	c.mu.Lock()
	c.orders[order.ID] = &cp
	c.mu.Unlock()
}

// Delete drops the order from the cache.
func (c *Cache) Delete(id string) {
	c.mu.Lock()
	delete(c.orders, id)
	c.mu.Unlock()
}

// ReplaceAll swaps the cache contents for the given orders.
func (c *Cache) ReplaceAll(orders []crm.Order) {
	next := make(map[string]*crm.Order, len(orders))
	for _, o := range orders {
		cp := cloneOrder(o)
		next[o.ID] = &cp
	}
	c.mu.Lock()
	c.orders = next
	c.mu.Unlock()
}

// List returns the cached orders, newest first.
func (c *Cache) List() []crm.Order {
	c.mu.RLock()
	out := make([]crm.Order, 0, len(c.orders))
	for _, o := range c.orders {
		out = append(out, cloneOrder(*o))
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ApplyPatch applies a scoped patch to the cached order and returns the
// result. The caller sees the edit immediately; the canonical version
// replaces it when the upstream round trip settles.
func (c *Cache) ApplyPatch(id string, patch crm.Patch) (crm.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.orders[id]
	if !ok {
		return crm.Order{}, false
	}
	for key, value := range patch {
		if strings.HasPrefix(key, "items.") {
			applyItemField(o, key, value)
		} else {
			applyField(o, key, value)
		}
	}
	return cloneOrder(*o), true
}

// ApplyPayload applies a full-order payload to the cached order.
func (c *Cache) ApplyPayload(id string, payload *crm.OrderPayload) (crm.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.orders[id]
	if !ok {
		return crm.Order{}, false
	}
	if payload.VendorID != "" && payload.VendorID != o.Vendor.ID {
		o.Vendor = crm.VendorRef{ID: payload.VendorID}
	}
	if payload.Items != nil {
		o.Items = append([]crm.Item(nil), payload.Items...)
	}
	if payload.Status != "" {
		o.Status = payload.Status
	}
	if payload.PriceApprovalStatus != "" {
		o.PriceApprovalStatus = payload.PriceApprovalStatus
	}
	if payload.Price != nil {
		o.Price = *payload.Price
	}
	if payload.TotalAmount != nil {
		o.TotalAmount = *payload.TotalAmount
	}
	if payload.TransferAmount != nil {
		o.TransferAmount = *payload.TransferAmount
	}
	if payload.ConfirmationDate != nil {
		o.ConfirmationDate = *payload.ConfirmationDate
	}
	if payload.InvoiceNumber != nil {
		o.InvoiceNumber = *payload.InvoiceNumber
	}
	if payload.ShippingDate != nil {
		o.ShippingDate = *payload.ShippingDate
	}
	if payload.ArrivalDate != nil {
		o.ArrivalDate = *payload.ArrivalDate
	}
	if payload.Notes != nil {
		o.Notes = *payload.Notes
	}
	return cloneOrder(*o), true
}

func applyField(o *crm.Order, name string, value any) {
	switch name {
	case "vendorId":
		if id := asString(value); id != o.Vendor.ID {
			o.Vendor = crm.VendorRef{ID: id}
		}
	case "orderNumber":
		o.OrderNumber = asString(value)
	case "status":
		o.Status = asString(value)
	case "priceApprovalStatus":
		o.PriceApprovalStatus = asString(value)
	case "price":
		o.Price = asDecimal(value)
	case "totalAmount":
		o.TotalAmount = asDecimal(value)
	case "transferAmount":
		o.TransferAmount = asDecimal(value)
	case "confirmationDate":
		o.ConfirmationDate = asString(value)
	case "invoiceNumber":
		o.InvoiceNumber = asString(value)
	case "shippingDate":
		o.ShippingDate = asString(value)
	case "arrivalDate":
		o.ArrivalDate = asString(value)
	case "notes":
		o.Notes = asString(value)
	case "items":
		if rows, ok := value.([]crm.Item); ok {
			o.Items = append([]crm.Item(nil), rows...)
		}
	}
}

func applyItemField(o *crm.Order, key string, value any) {
	parts := strings.SplitN(key, ".", 3)
	if len(parts) != 3 {
		return
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil || idx < 0 || idx >= len(o.Items) {
		return
	}
	item := &o.Items[idx]
	switch parts[2] {
	case "quantity":
		item.Quantity = asInt(value)
	case "unitPrice":
		item.UnitPrice = asDecimal(value)
	case "totalPrice":
		item.TotalPrice = asDecimal(value)
	case "itemNumber":
		item.ItemNumber = asString(value)
	case "productName":
		item.ProductName = asString(value)
	case "productId":
		item.ProductID = asString(value)
	case "image":
		item.Image = asString(value)
	}
}

func cloneOrder(o crm.Order) crm.Order {
	cp := o
	cp.Items = append([]crm.Item(nil), o.Items...)
	return cp
}

// --- Patch value coercions ---

func asString(value any) string {
	s, _ := value.(string)
	return s
}

func asInt(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func asDecimal(value any) decimal.Decimal {
	switch v := value.(type) {
	case decimal.Decimal:
		return v
	case *decimal.Decimal:
		if v != nil {
			return *v
		}
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	}
	return decimal.Zero
}
