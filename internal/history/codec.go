package history

import (
	"strings"

	"github.com/noot-app/carcinogenscan/internal/backend"
)

const (
	entrySeparator = " | "
	fieldSeparator = ": "
)

// EncodeBatchInput joins products as "<product>: <ingredients>" separated by " | ".
// Separators inside names or ingredients are not escaped, so decoding such
// input is lossy.
func EncodeBatchInput(products []backend.ProductInput) string {
	parts := make([]string, 0, len(products))
	for _, p := range products {
		parts = append(parts, p.Product+fieldSeparator+p.Ingredients)
	}
	return strings.Join(parts, entrySeparator)
}

// DecodeBatchInput reverses EncodeBatchInput. Each entry is split on the first
// ": "; a missing separator leaves ingredients empty. Input with no entries
// decodes to a single empty product.
func DecodeBatchInput(input string) []backend.ProductInput {
	var products []backend.ProductInput
	if input != "" {
		for _, entry := range strings.Split(input, entrySeparator) {
			product, ingredients, _ := strings.Cut(entry, fieldSeparator)
			products = append(products, backend.ProductInput{
				Product:     product,
				Ingredients: ingredients,
			})
		}
	}

	if len(products) == 0 {
		return []backend.ProductInput{{}}
	}
	return products
}
