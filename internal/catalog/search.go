package catalog

import (
	"sort"
	"strings"
	"unicode"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
)

const (
	// defaultSearchLimit caps result lists for the item picker.
	defaultSearchLimit = 20

	exactTokenWeight  = 3
	prefixTokenWeight = 1
)

// searchIndex holds pre-tokenized products, parallel to the snapshot's
// product list. Tokens come from the item number and the name, so
// "A-100" is findable as "a", "100", or any word of its name.
type searchIndex struct {
	tokens [][]string
}

func buildIndex(products []crm.Product) searchIndex {
	idx := searchIndex{tokens: make([][]string, len(products))}
	for i, p := range products {
		seen := make(map[string]bool)
		var tokens []string
		for _, tok := range tokenizeText(p.ItemNumber + " " + p.Name) {
			if !seen[tok] {
				seen[tok] = true
				tokens = append(tokens, tok)
			}
		}
		idx.tokens[i] = tokens
	}
	return idx
}

// Search ranks catalog products against a free-text query. A query
// that is exactly an item number returns just that product. Otherwise
// every query token must hit a product token, exact hits outscoring
// prefix hits, and ties keep catalog order. An empty query returns the
// head of the catalog, so the picker has something to show before the
// user types.
func (c *Cache) Search(query string, limit int) []crm.Product {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	snap := c.snap.Load().(snapshot)

	if number := normalize(query); number != "" {
		if p, ok := snap.byNumber[number]; ok {
			return []crm.Product{p}
		}
	}

	queryTokens := tokenizeText(query)
	if len(queryTokens) == 0 {
		if len(snap.list) > limit {
			return append([]crm.Product(nil), snap.list[:limit]...)
		}
		return append([]crm.Product(nil), snap.list...)
	}

	type scoredProduct struct {
		product crm.Product
		score   int
	}
	var scored []scoredProduct

	for i, p := range snap.list {
		score := scoreProduct(queryTokens, snap.index.tokens[i])
		if score == 0 {
			continue
		}
		scored = append(scored, scoredProduct{product: p, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	out := make([]crm.Product, len(scored))
	for i, s := range scored {
		out[i] = s.product
	}
	return out
}

// scoreProduct scores one product against the query tokens. A product
// missing any query token scores zero.
func scoreProduct(query, product []string) int {
	total := 0
	for _, q := range query {
		best := 0
		for _, tok := range product {
			if tok == q {
				best = exactTokenWeight
				break
			}
			if best < prefixTokenWeight && strings.HasPrefix(tok, q) {
				best = prefixTokenWeight
			}
		}
		if best == 0 {
			return 0
		}
		total += best
	}
	return total
}

// tokenizeText lowercases the input, treats every non-alphanumeric
// rune as a separator, and splits on whitespace.
func tokenizeText(s string) []string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(' ')
		}
	}
	return strings.Fields(sb.String())
}
