package catalog

import (
	"encoding/json"
	"strings"
)

// Ingredient is one parsed entry of a product's ingredient list
type Ingredient struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	PercentEstimate *float64 `json:"percent_estimate,omitempty"`
}

// parseIngredients decodes the parquet ingredients column (as JSON). Entries
// without text are skipped.
func parseIngredients(raw string) []Ingredient {
	if raw == "" {
		return nil
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}

	ingredients := make([]Ingredient, 0, len(items))
	for _, item := range items {
		var ing Ingredient
		if id, ok := item["id"].(string); ok {
			ing.ID = id
		}
		if text, ok := item["text"].(string); ok {
			ing.Text = strings.TrimSpace(text)
		}
		if pct, ok := item["percent_estimate"].(float64); ok {
			ing.PercentEstimate = &pct
		}

		if ing.Text == "" {
			continue
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients
}

// ingredientsText joins ingredient texts the way users type them
func ingredientsText(ingredients []Ingredient) string {
	texts := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		texts = append(texts, ing.Text)
	}
	return strings.Join(texts, ", ")
}
