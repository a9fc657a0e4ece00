package items

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrNoLines reports pasted text with nothing parseable in it.
var ErrNoLines = errors.New("no item lines recognized")

// ParsedLine is one pasted row: the item number, optional name words,
// and optional quantity and unit price.
type ParsedLine struct {
	RawText     string
	ItemNumber  string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// BulkPaste is the result of parsing pasted item text.
type BulkPaste struct {
	Lines    []ParsedLine
	Warnings []string // lines that failed to parse
}

// ParseLines parses pasted text into item rows, one line per row. A
// line reads: item number first, then any mix of name words, a
// quantity ("x3", "3x", or a bare whole number), and a unit price
// ("@12.50"). Lines that do not start with something shaped like an
// item number are skipped and reported as warnings.
func ParseLines(text string) (*BulkPaste, error) {
	var lines []ParsedLine
	var warnings []string

	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		line, err := parseItemLine(raw)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped: %s", raw))
			continue
		}
		lines = append(lines, *line)
	}

	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	return &BulkPaste{Lines: lines, Warnings: warnings}, nil
}

// parseItemLine parses a single pasted line (e.g. "A-100 x3 @12.50").
func parseItemLine(line string) (*ParsedLine, error) {
	tokens := strings.Fields(line)
	number := tokens[0]
	if !looksLikeItemNumber(number) {
		return nil, fmt.Errorf("no item number in line: %q", line)
	}
	if strings.EqualFold(number, CustomSentinel) {
		number = CustomSentinel
	}

	parsed := &ParsedLine{
		RawText:    line,
		ItemNumber: number,
		Quantity:   1,
		UnitPrice:  decimal.Zero,
	}

	var nameTokens []string
	var qtyFound, priceFound bool

	for _, tok := range tokens[1:] {
		if price, ok := parseUnitPrice(tok); ok && !priceFound {
			parsed.UnitPrice = price
			priceFound = true
			continue
		}
		if qty, ok := parseQuantity(tok); ok && !qtyFound {
			parsed.Quantity = qty
			qtyFound = true
			continue
		}
		nameTokens = append(nameTokens, tok)
	}

	parsed.ProductName = strings.Join(nameTokens, " ")
	return parsed, nil
}

// looksLikeItemNumber accepts part numbers ("A-100", "1609757") and
// the custom sentinel. A plain word marks a noise line.
func looksLikeItemNumber(tok string) bool {
	if strings.EqualFold(tok, CustomSentinel) {
		return true
	}
	for _, r := range tok {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// parseUnitPrice parses "@12.50" into a decimal amount.
func parseUnitPrice(tok string) (decimal.Decimal, bool) {
	raw, ok := strings.CutPrefix(tok, "@")
	if !ok || raw == "" {
		return decimal.Decimal{}, false
	}
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() {
		return decimal.Decimal{}, false
	}
	return price, true
}

// parseQuantity parses "x3", "3x", or a bare whole number.
func parseQuantity(tok string) (int, bool) {
	t := strings.ToLower(tok)
	switch {
	case strings.HasPrefix(t, "x"):
		t = t[1:]
	case strings.HasSuffix(t, "x"):
		t = t[:len(t)-1]
	}
	if t == "" {
		return 0, false
	}
	qty, err := strconv.Atoi(t)
	if err != nil || qty <= 0 {
		return 0, false
	}
	return qty, true
}
