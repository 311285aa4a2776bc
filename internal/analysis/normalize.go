package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// UnexpectedResponseMessage is shown when a 2xx body matches no known shape
const UnexpectedResponseMessage = "Unexpected response from backend"

// ErrUnexpectedResponse is returned for bodies that are neither a result nor an error
var ErrUnexpectedResponse = errors.New("unexpected response from backend")

// BackendError carries an error message reported by the scoring backend
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

// NonFood reports whether the backend rejected the input as not being food
func (e *BackendError) NonFood() bool {
	return strings.Contains(e.Message, "Non-food items detected") ||
		strings.Contains(strings.ToLower(e.Message), "non-food")
}

// ParseSingle normalizes a single-analysis response body.
// It returns a *BackendError when the body reports an error and
// ErrUnexpectedResponse when the body has any other unknown shape.
func ParseSingle(body []byte) (*SingleResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, ErrUnexpectedResponse
	}

	if msg, ok := errorField(fields); ok {
		return nil, &BackendError{Message: msg}
	}

	raw, ok := fields["ingredients"]
	if !ok {
		return nil, ErrUnexpectedResponse
	}
	rows, err := parseRows(raw)
	if err != nil {
		return nil, ErrUnexpectedResponse
	}

	result := &SingleResult{Ingredients: rows}
	if w, ok := fields["warning"]; ok {
		result.Warning = stringValue(w)
	}
	if c, ok := fields["cached"]; ok {
		_ = json.Unmarshal(c, &result.Cached)
	}
	return result, nil
}

// ParseBatch normalizes a batch response body, a map from product name to
// per-product result. Product order follows the body's key order. A map
// with no products is a shape error since requests always carry one.
func ParseBatch(body []byte) (*BatchResult, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return nil, ErrUnexpectedResponse
	}

	products := orderedmap.New[string, json.RawMessage]()
	if err := products.UnmarshalJSON(body); err != nil {
		return nil, ErrUnexpectedResponse
	}

	// a top-level string "error" is a failure of the whole request
	if raw, ok := products.Get("error"); ok && isJSONString(raw) {
		return nil, &BackendError{Message: stringValue(raw)}
	}

	if products.Len() == 0 {
		return nil, ErrUnexpectedResponse
	}

	result := NewBatchResult()
	for pair := products.Oldest(); pair != nil; pair = pair.Next() {
		pr, err := parseProduct(pair.Value)
		if err != nil {
			return nil, fmt.Errorf("product %q: %w", pair.Key, err)
		}
		result.products.Set(pair.Key, pr)
	}
	return result, nil
}

func parseProduct(raw json.RawMessage) (ProductResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return ProductResult{}, ErrUnexpectedResponse
	}

	var pr ProductResult
	if msg, ok := errorField(fields); ok {
		pr.Error = msg
	}
	if w, ok := fields["warning"]; ok {
		pr.Warning = stringValue(w)
	}
	if rawRows, ok := fields["ingredients"]; ok {
		rows, err := parseRows(rawRows)
		if err != nil {
			return ProductResult{}, ErrUnexpectedResponse
		}
		pr.Ingredients = rows
	}
	return pr, nil
}

// parseRows decodes an ingredients array, tolerating missing or oddly typed fields.
// Anything but an array, null included, is rejected.
func parseRows(raw json.RawMessage) ([]Row, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return nil, ErrUnexpectedResponse
	}

	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, normalizeRow(item))
	}
	return rows, nil
}

// normalizeRow copies name, risk level, score and explanation verbatim,
// coerces the NOVA group to a string and treats a missing source as empty
func normalizeRow(item map[string]any) Row {
	return Row{
		Name:        textField(item, "name"),
		RiskLevel:   textField(item, "risk_level"),
		Score:       item["score"],
		NovaGroup:   novaGroup(item["nova_group"]),
		Source:      textField(item, "source"),
		Explanation: textField(item, "explanation"),
	}
}

func novaGroup(v any) *string {
	var s string
	switch g := v.(type) {
	case nil:
		return nil
	case string:
		s = g
	case float64:
		s = strconv.FormatFloat(g, 'f', -1, 64)
	default:
		s = fmt.Sprint(g)
	}
	if s == "" {
		return nil
	}
	return &s
}

func textField(item map[string]any, key string) string {
	switch v := item[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// errorField returns the "error" member when present and not null
func errorField(fields map[string]json.RawMessage) (string, bool) {
	raw, ok := fields["error"]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return "", false
	}
	return stringValue(raw), true
}

// stringValue decodes a JSON string, falling back to the raw JSON text.
// null decodes to the empty string.
func stringValue(raw json.RawMessage) string {
	if string(bytes.TrimSpace(raw)) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func isJSONString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}
