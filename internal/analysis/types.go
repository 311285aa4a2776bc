// Package analysis holds the display model for ingredient risk assessments
// and turns raw backend responses into it.
package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Row is one assessed ingredient
type Row struct {
	Name        string  `json:"name"`
	RiskLevel   string  `json:"risk_level"`
	Score       any     `json:"score"`
	NovaGroup   *string `json:"nova_group"`
	Source      string  `json:"source"`
	Explanation string  `json:"explanation"`
}

// ScoreText renders the score the way the results table shows it
func (r Row) ScoreText() string {
	switch v := r.Score.(type) {
	case nil:
		return "N/A"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// NovaLabel returns the NOVA classification label for the row
func (r Row) NovaLabel() string {
	return NovaLabel(r.NovaGroup)
}

// NovaTone returns the tint used for the row's NOVA cell
func (r Row) NovaTone() Tone {
	return NovaTone(r.NovaGroup)
}

// RiskBadge returns the badge text for the row's risk level
func (r Row) RiskBadge() string {
	return RiskBadge(r.RiskLevel)
}

// SingleResult is the outcome of analyzing one ingredient list
type SingleResult struct {
	Ingredients []Row  `json:"ingredients"`
	Warning     string `json:"warning,omitempty"`
	Cached      bool   `json:"cached,omitempty"`
}

// Clone returns a copy that shares no rows with r
func (r *SingleResult) Clone() *SingleResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Ingredients = cloneRows(r.Ingredients)
	return &c
}

// ProductResult is the outcome for one product in a batch
type ProductResult struct {
	Ingredients []Row  `json:"ingredients"`
	Warning     string `json:"warning,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BatchEntry pairs a product name with its result
type BatchEntry struct {
	Product string        `json:"product"`
	Result  ProductResult `json:"result"`
}

// BatchResult maps product names to results, keeping the backend's key order
type BatchResult struct {
	products *orderedmap.OrderedMap[string, ProductResult]
}

// NewBatchResult builds a batch result from entries in order
func NewBatchResult(entries ...BatchEntry) *BatchResult {
	b := &BatchResult{products: orderedmap.New[string, ProductResult]()}
	for _, e := range entries {
		b.products.Set(e.Product, e.Result)
	}
	return b
}

// Len returns the number of products
func (b *BatchResult) Len() int {
	if b == nil || b.products == nil {
		return 0
	}
	return b.products.Len()
}

// Get returns the result for a product
func (b *BatchResult) Get(product string) (ProductResult, bool) {
	if b == nil || b.products == nil {
		return ProductResult{}, false
	}
	return b.products.Get(product)
}

// Entries returns products and results in enumeration order
func (b *BatchResult) Entries() []BatchEntry {
	if b.Len() == 0 {
		return nil
	}
	entries := make([]BatchEntry, 0, b.products.Len())
	for pair := b.products.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, BatchEntry{Product: pair.Key, Result: pair.Value})
	}
	return entries
}

// Clone returns a copy that shares no rows with b
func (b *BatchResult) Clone() *BatchResult {
	if b == nil {
		return nil
	}
	c := NewBatchResult()
	for _, e := range b.Entries() {
		e.Result.Ingredients = cloneRows(e.Result.Ingredients)
		c.products.Set(e.Product, e.Result)
	}
	return c
}

func cloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		if r.NovaGroup != nil {
			g := *r.NovaGroup
			r.NovaGroup = &g
		}
		out[i] = r
	}
	return out
}

// MarshalJSON encodes the batch as an object whose keys keep their order
func (b *BatchResult) MarshalJSON() ([]byte, error) {
	if b == nil || b.products == nil {
		return []byte("{}"), nil
	}
	return b.products.MarshalJSON()
}
