package history

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noot-app/carcinogenscan/internal/backend"
)

func TestEncodeBatchInput(t *testing.T) {
	tests := []struct {
		name     string
		products []backend.ProductInput
		expected string
	}{
		{
			name:     "single product",
			products: []backend.ProductInput{{Product: "Cereal A", Ingredients: "corn, sugar"}},
			expected: "Cereal A: corn, sugar",
		},
		{
			name: "several products",
			products: []backend.ProductInput{
				{Product: "Cereal A", Ingredients: "corn, sugar"},
				{Product: "Juice", Ingredients: "apple, water"},
			},
			expected: "Cereal A: corn, sugar | Juice: apple, water",
		},
		{
			name:     "no products",
			products: nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EncodeBatchInput(tt.products))
		})
	}
}

func TestDecodeBatchInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []backend.ProductInput
	}{
		{
			name:     "single product",
			input:    "Cereal A: corn, sugar",
			expected: []backend.ProductInput{{Product: "Cereal A", Ingredients: "corn, sugar"}},
		},
		{
			name:  "several products",
			input: "Cereal A: corn, sugar | Juice: apple, water",
			expected: []backend.ProductInput{
				{Product: "Cereal A", Ingredients: "corn, sugar"},
				{Product: "Juice", Ingredients: "apple, water"},
			},
		},
		{
			name:     "splits on the first field separator only",
			input:    "Soup: stock: chicken, salt",
			expected: []backend.ProductInput{{Product: "Soup", Ingredients: "stock: chicken, salt"}},
		},
		{
			name:     "missing field separator",
			input:    "Mystery",
			expected: []backend.ProductInput{{Product: "Mystery", Ingredients: ""}},
		},
		{
			name:     "empty input falls back to one empty entry",
			input:    "",
			expected: []backend.ProductInput{{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DecodeBatchInput(tt.input))
		})
	}
}

func TestBatchInputRoundTrip(t *testing.T) {
	products := []backend.ProductInput{
		{Product: "Cereal A", Ingredients: "corn, sugar"},
		{Product: "Snack Bar", Ingredients: "oats, honey, almonds"},
	}

	assert.Equal(t, products, DecodeBatchInput(EncodeBatchInput(products)))
}

func TestBatchInputRoundTrip_LossyWithSeparators(t *testing.T) {
	products := []backend.ProductInput{{Product: "A | B", Ingredients: "x"}}

	decoded := DecodeBatchInput(EncodeBatchInput(products))
	assert.NotEqual(t, products, decoded)
	assert.Len(t, decoded, 2)
}
