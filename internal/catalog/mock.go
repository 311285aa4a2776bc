package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// MockEngine is an in-memory catalog for tests and demos
type MockEngine struct {
	mu       sync.RWMutex
	products []Product
	err      error
	log      *slog.Logger
}

// Ensure MockEngine implements Catalog
var _ Catalog = (*MockEngine)(nil)

// NewMockEngine creates a mock catalog seeded with two products
func NewMockEngine(logger *slog.Logger) *MockEngine {
	nutella := []Ingredient{
		{ID: "en:sugar", Text: "sugar"},
		{ID: "en:palm-oil", Text: "palm oil"},
		{ID: "en:hazelnut", Text: "hazelnuts"},
		{ID: "en:cocoa", Text: "cocoa"},
		{ID: "en:skimmed-milk-powder", Text: "skimmed milk powder"},
	}
	cereal := []Ingredient{
		{ID: "en:corn", Text: "corn"},
		{ID: "en:sugar", Text: "sugar"},
		{ID: "en:salt", Text: "salt"},
		{ID: "en:barley-malt-extract", Text: "barley malt extract"},
	}

	return &MockEngine{
		log: logger,
		products: []Product{
			{
				Code:            "3017620422003",
				ProductName:     "Nutella",
				Brands:          "Ferrero",
				Link:            "https://world.openfoodfacts.org/product/3017620422003/nutella-ferrero",
				Ingredients:     nutella,
				IngredientsText: ingredientsText(nutella),
			},
			{
				Code:            "5053827164524",
				ProductName:     "Corn Flakes",
				Brands:          "Kellogg's",
				Link:            "https://world.openfoodfacts.org/product/5053827164524/corn-flakes-kellogg-s",
				Ingredients:     cereal,
				IngredientsText: ingredientsText(cereal),
			},
		},
	}
}

// Search filters the seeded products by name and brand (case-insensitive)
func (m *MockEngine) Search(ctx context.Context, name, brand string, limit int) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}

	limit = normalizeLimit(limit)
	var results []Product
	for _, product := range m.products {
		if name != "" && !contains(product.ProductName, name) {
			continue
		}
		if brand != "" && !contains(product.Brands, brand) {
			continue
		}
		results = append(results, product)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// LookupBarcode finds a seeded product by barcode
func (m *MockEngine) LookupBarcode(ctx context.Context, barcode string) (*Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}

	for _, product := range m.products {
		if product.Code == barcode {
			p := product
			return &p, nil
		}
	}
	return nil, nil
}

// TestConnection returns the configured error, if any
func (m *MockEngine) TestConnection(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// Close is a no-op
func (m *MockEngine) Close() error {
	return nil
}

// SetError makes every call fail with err
func (m *MockEngine) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetProducts replaces the seeded products
func (m *MockEngine) SetProducts(products []Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = products
}

func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
