// Package items manages the item rows of an order being edited. A
// collection always holds at least one row, auto-fills product names
// from the catalog, and keeps per-row and collection totals derived.
package items

import (
	"errors"
	"strconv"
	"strings"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomSentinel marks a row whose item number will be typed by hand
// instead of picked from the catalog.
const CustomSentinel = "custom"

var (
	ErrItemNotFound    = errors.New("item not found")
	ErrLastItem        = errors.New("an order must keep at least one item")
	ErrUnknownField    = errors.New("unknown item field")
	ErrInvalidQuantity = errors.New("quantity must be a whole number")
	ErrInvalidPrice    = errors.New("unit price must be a valid amount")
)

// Item is one editable row. ID is a session-local identity that stays
// stable while rows are added and removed; it never goes on the wire.
type Item struct {
	ID          string
	ProductID   string
	ItemNumber  string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
	Image       string
}

// Catalog supplies product names and ids for item-number auto-fill.
type Catalog interface {
	ProductName(itemNumber string) string
	ResolveProductID(itemNumber string) string
}

// List holds the rows of one order. It is not safe for concurrent use;
// the owning session serializes access.
type List struct {
	catalog Catalog
	rows    []Item
}

// NewList returns a list with a single blank row.
func NewList(catalog Catalog) *List {
	l := &List{catalog: catalog}
	l.rows = append(l.rows, blankRow())
	return l
}

// FromItems builds a list from persisted order items. An empty input
// still yields one blank row.
func FromItems(catalog Catalog, persisted []crm.Item) *List {
	l := &List{catalog: catalog}
	for _, it := range persisted {
		l.rows = append(l.rows, Item{
			ID:          uuid.NewString(),
			ProductID:   it.ProductID,
			ItemNumber:  it.ItemNumber,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  derivedTotal(it.Quantity, it.UnitPrice),
			Image:       it.Image,
		})
	}
	if len(l.rows) == 0 {
		l.rows = append(l.rows, blankRow())
	}
	return l
}

func blankRow() Item {
	return Item{ID: uuid.NewString(), Quantity: 1}
}

// IsBlank reports whether the row is still untouched since creation.
func (it Item) IsBlank() bool {
	return it.ItemNumber == "" && it.ProductName == "" &&
		it.Quantity <= 1 && it.UnitPrice.IsZero()
}

// Add appends a blank row and returns it.
func (l *List) Add() Item {
	row := blankRow()
	l.rows = append(l.rows, row)
	return row
}

// AddParsed appends a row built from a parsed paste line. The catalog
// fills in the product name and id, unless the line carries its own name.
func (l *List) AddParsed(line ParsedLine) Item {
	row := Item{
		ID:         uuid.NewString(),
		ItemNumber: line.ItemNumber,
		Quantity:   line.Quantity,
		UnitPrice:  line.UnitPrice,
	}
	if row.ItemNumber != CustomSentinel && l.catalog != nil {
		row.ProductName = l.catalog.ProductName(row.ItemNumber)
		row.ProductID = l.catalog.ResolveProductID(row.ItemNumber)
	}
	if line.ProductName != "" {
		row.ProductName = line.ProductName
	}
	row.TotalPrice = derivedTotal(row.Quantity, row.UnitPrice)
	l.rows = append(l.rows, row)
	return row
}

// Remove deletes the row with the given id. The last remaining row
// cannot be removed.
func (l *List) Remove(id string) error {
	if len(l.rows) == 1 {
		return ErrLastItem
	}
	idx := l.IndexOf(id)
	if idx < 0 {
		return ErrItemNotFound
	}
	l.rows = append(l.rows[:idx], l.rows[idx+1:]...)
	return nil
}

// Update sets one field of one row from its raw input string, keeping
// the row total derived. Picking a catalog item number fills in the
// product name and id; the custom sentinel leaves them untouched.
func (l *List) Update(id, field, raw string) error {
	idx := l.IndexOf(id)
	if idx < 0 {
		return ErrItemNotFound
	}
	row := &l.rows[idx]

	switch field {
	case "itemNumber":
		row.ItemNumber = strings.TrimSpace(raw)
		// The old product id no longer matches the row.
		row.ProductID = ""
		if row.ItemNumber != CustomSentinel && l.catalog != nil {
			if name := l.catalog.ProductName(row.ItemNumber); name != "" {
				row.ProductName = name
			}
			row.ProductID = l.catalog.ResolveProductID(row.ItemNumber)
		}
	case "productName":
		row.ProductName = strings.TrimSpace(raw)
	case "quantity":
		qty, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || qty <= 0 {
			return ErrInvalidQuantity
		}
		row.Quantity = qty
	case "unitPrice":
		price, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil || price.IsNegative() {
			return ErrInvalidPrice
		}
		row.UnitPrice = price
	default:
		return ErrUnknownField
	}

	row.TotalPrice = derivedTotal(row.Quantity, row.UnitPrice)
	return nil
}

// IndexOf returns the position of the row with the given id, or -1.
func (l *List) IndexOf(id string) int {
	for i, row := range l.rows {
		if row.ID == id {
			return i
		}
	}
	return -1
}

// Items returns a copy of the rows in order.
func (l *List) Items() []Item {
	out := make([]Item, len(l.rows))
	copy(out, l.rows)
	return out
}

// Len returns the number of rows.
func (l *List) Len() int {
	return len(l.rows)
}

// TotalQuantity sums the quantities of all rows.
func (l *List) TotalQuantity() int {
	total := 0
	for _, row := range l.rows {
		total += row.Quantity
	}
	return total
}

// TotalAmount sums the derived row totals.
func (l *List) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, row := range l.rows {
		total = total.Add(row.TotalPrice)
	}
	return total
}

// CRMItems maps the rows to their wire shape, recomputing totals.
func (l *List) CRMItems() []crm.Item {
	out := make([]crm.Item, 0, len(l.rows))
	for _, row := range l.rows {
		out = append(out, crm.Item{
			ProductID:   row.ProductID,
			ItemNumber:  row.ItemNumber,
			ProductName: row.ProductName,
			Quantity:    row.Quantity,
			UnitPrice:   row.UnitPrice,
			TotalPrice:  derivedTotal(row.Quantity, row.UnitPrice),
			Image:       row.Image,
		})
	}
	return out
}

func derivedTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
