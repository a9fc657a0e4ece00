package items

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		input string
		qty   int
		ok    bool
	}{
		{"x3", 3, true},
		{"X3", 3, true},
		{"3x", 3, true},
		{"12", 12, true},
		{"x0", 0, false},
		{"-2", 0, false},
		{"x", 0, false},
		{"pad", 0, false},
		{"2.5", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			qty, ok := parseQuantity(tt.input)
			if ok != tt.ok {
				t.Fatalf("parseQuantity(%q): got ok=%v, want %v", tt.input, ok, tt.ok)
			}
			if ok && qty != tt.qty {
				t.Errorf("parseQuantity(%q): got %v, want %v", tt.input, qty, tt.qty)
			}
		})
	}
}

func TestParseUnitPrice(t *testing.T) {
	tests := []struct {
		input string
		price string
		ok    bool
	}{
		{"@12.50", "12.50", true},
		{"@5", "5", true},
		{"@0", "0", true},
		{"@-1", "", false},
		{"@", "", false},
		{"@abc", "", false},
		{"12.50", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			price, ok := parseUnitPrice(tt.input)
			if ok != tt.ok {
				t.Fatalf("parseUnitPrice(%q): got ok=%v, want %v", tt.input, ok, tt.ok)
			}
			if ok && !price.Equal(decimal.RequireFromString(tt.price)) {
				t.Errorf("parseUnitPrice(%q): got %v, want %v", tt.input, price, tt.price)
			}
		})
	}
}

func TestParseItemLine(t *testing.T) {
	tests := []struct {
		input      string
		itemNumber string
		name       string
		qty        int
		price      string
	}{
		{"A-100 x3 @12.50", "A-100", "", 3, "12.50"},
		{"A-100 3", "A-100", "", 3, "0"},
		{"1609757 fuel pump x10 @4.25", "1609757", "fuel pump", 10, "4.25"},
		{"B-300 oil filter", "B-300", "oil filter", 1, "0"},
		{"custom hand made bracket 2x", "custom", "hand made bracket", 2, "0"},
		{"Custom special order", "custom", "special order", 1, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			line, err := parseItemLine(tt.input)
			if err != nil {
				t.Fatalf("parseItemLine(%q): %v", tt.input, err)
			}
			if line.ItemNumber != tt.itemNumber {
				t.Errorf("itemNumber: got %q, want %q", line.ItemNumber, tt.itemNumber)
			}
			if line.ProductName != tt.name {
				t.Errorf("productName: got %q, want %q", line.ProductName, tt.name)
			}
			if line.Quantity != tt.qty {
				t.Errorf("quantity: got %v, want %v", line.Quantity, tt.qty)
			}
			if !line.UnitPrice.Equal(decimal.RequireFromString(tt.price)) {
				t.Errorf("unitPrice: got %v, want %v", line.UnitPrice, tt.price)
			}
		})
	}
}

func TestParseItemLineRejectsNoiseLine(t *testing.T) {
	if _, err := parseItemLine("please deliver before friday"); err == nil {
		t.Fatal("expected error for a line without an item number")
	}
}

func TestParseLines(t *testing.T) {
	text := "A-100 x3 @12.50\n\nplease hurry\nB-300 oil filter 2\n"

	paste, err := ParseLines(text)
	if err != nil {
		t.Fatalf("ParseLines: %v", err)
	}

	if len(paste.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(paste.Lines))
	}
	if paste.Lines[0].ItemNumber != "A-100" || paste.Lines[0].Quantity != 3 {
		t.Errorf("unexpected first line: %+v", paste.Lines[0])
	}
	if paste.Lines[1].ItemNumber != "B-300" || paste.Lines[1].Quantity != 2 {
		t.Errorf("unexpected second line: %+v", paste.Lines[1])
	}

	if len(paste.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", paste.Warnings)
	}
	if paste.Warnings[0] != "skipped: please hurry" {
		t.Errorf("unexpected warning: %q", paste.Warnings[0])
	}
}

func TestParseLinesNothingParseable(t *testing.T) {
	for _, text := range []string{"", "\n\n", "just some words\nmore words"} {
		if _, err := ParseLines(text); !errors.Is(err, ErrNoLines) {
			t.Errorf("ParseLines(%q): got %v, want ErrNoLines", text, err)
		}
	}
}

func TestAddParsedFillsFromCatalog(t *testing.T) {
	list := NewList(newTestCatalog())

	row := list.AddParsed(ParsedLine{ItemNumber: "A-100", Quantity: 3, UnitPrice: decimal.RequireFromString("10.00")})
	if row.ProductName != "Brake pad" {
		t.Errorf("expected catalog auto-fill, got %q", row.ProductName)
	}
	if row.ProductID != "p1" {
		t.Errorf("expected resolved product id, got %q", row.ProductID)
	}
	if !row.TotalPrice.Equal(decimal.RequireFromString("30.00")) {
		t.Errorf("expected derived total 30.00, got %s", row.TotalPrice)
	}

	// a pasted name wins over the catalog
	row = list.AddParsed(ParsedLine{ItemNumber: "A-100", ProductName: "Front pad set", Quantity: 1, UnitPrice: decimal.Zero})
	if row.ProductName != "Front pad set" {
		t.Errorf("expected pasted name kept, got %q", row.ProductName)
	}

	// the custom sentinel skips the catalog
	row = list.AddParsed(ParsedLine{ItemNumber: CustomSentinel, ProductName: "Bracket", Quantity: 1, UnitPrice: decimal.Zero})
	if row.ItemNumber != CustomSentinel || row.ProductName != "Bracket" {
		t.Errorf("unexpected custom row: %+v", row)
	}
}

func TestIsBlank(t *testing.T) {
	list := NewList(newTestCatalog())
	row := list.Items()[0]
	if !row.IsBlank() {
		t.Error("fresh row should be blank")
	}

	if err := list.Update(row.ID, "itemNumber", "A-100"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if list.Items()[0].IsBlank() {
		t.Error("row with an item number is not blank")
	}
}
