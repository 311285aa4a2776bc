// Package catalog looks up Open Food Facts products so their ingredient
// lists can be analyzed without retyping them.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/noot-app/carcinogenscan/internal/backend"
	"github.com/noot-app/carcinogenscan/internal/config"
)

// DefaultSearchLimit caps name/brand searches when no limit is given
const DefaultSearchLimit = 10

// ErrDisabled is returned when no catalog parquet is configured
var ErrDisabled = errors.New("product catalog is not configured")

// Catalog finds products by barcode or by name and brand
type Catalog interface {
	// LookupBarcode returns nil, nil when no product has the barcode
	LookupBarcode(ctx context.Context, barcode string) (*Product, error)
	Search(ctx context.Context, name, brand string, limit int) ([]Product, error)
	TestConnection(ctx context.Context) error
	Close() error
}

// Product is the part of an Open Food Facts record needed to analyze it
type Product struct {
	Code            string       `json:"code"`
	ProductName     string       `json:"product_name"`
	Brands          string       `json:"brands"`
	Link            string       `json:"link,omitempty"`
	IngredientsText string       `json:"ingredients_text"`
	Ingredients     []Ingredient `json:"ingredients,omitempty"`
}

// DisplayName is "<brands> <product_name>", skipping empty parts
func (p Product) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(p.Brands) + " " + strings.TrimSpace(p.ProductName))
}

// BatchEntry turns the product into a batch analysis entry
func (p Product) BatchEntry() backend.ProductInput {
	return backend.ProductInput{
		Product:     p.DisplayName(),
		Ingredients: p.IngredientsText,
	}
}

// New returns the catalog for cfg. CATALOG_ENGINE_MOCK=true selects the
// in-memory mock; an empty parquet path returns ErrDisabled.
func New(cfg *config.Config, logger *slog.Logger) (Catalog, error) {
	if os.Getenv("CATALOG_ENGINE_MOCK") == "true" {
		return NewMockEngine(logger), nil
	}
	if !cfg.CatalogEnabled() {
		return nil, ErrDisabled
	}
	return NewEngine(cfg.CatalogPath, logger)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	return limit
}
