// Package backend talks to the external carcinogen scoring service.
//
// Every call returns a Result envelope. Transport failures and non-2xx
// responses are folded into Result.Error; the client never returns a Go error.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	ingredientsPath = "/ingredients"
	healthPath      = "/health"
)

// ProductInput is one entry of a batch analysis request
type ProductInput struct {
	Product     string `json:"product"`
	Ingredients string `json:"ingredients"`
}

// singleRequest is the single-analysis body shape
type singleRequest struct {
	Ingredients string `json:"ingredients"`
}

// Result is the normalized result-or-error envelope returned by every call
type Result struct {
	// Body is the parsed JSON response body on success
	Body json.RawMessage
	// Error is set when the call failed in transport or returned a non-2xx status
	Error string
	// StatusCode is the HTTP status when a response was received
	StatusCode int
}

// Failed reports whether the call produced an error envelope
func (r Result) Failed() bool {
	return r.Error != ""
}

// Client is a stateless client for the scoring backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a backend client. A nil httpClient uses http.DefaultClient,
// so only transport defaults bound the call duration.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        logger,
	}
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PostIngredients submits a free-text ingredient list for single analysis
func (c *Client) PostIngredients(ctx context.Context, raw string) Result {
	return c.postJSON(ctx, singleRequest{Ingredients: raw})
}

// PostBatch submits several products for analysis. The body is a JSON array,
// which is how the backend tells batch requests apart on the shared endpoint.
func (c *Client) PostBatch(ctx context.Context, products []ProductInput) Result {
	if products == nil {
		products = []ProductInput{}
	}
	return c.postJSON(ctx, products)
}

// Health performs a liveness check against the backend
func (c *Client) Health(ctx context.Context) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return Result{Error: err.Error()}
	}
	return c.do(req)
}

func (c *Client) postJSON(ctx context.Context, payload any) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Error: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ingredientsPath, bytes.NewReader(body))
	if err != nil {
		return Result{Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) Result {
	start := time.Now()
	c.log.Debug("Backend request", "method", req.Method, "url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("Backend request failed", "error", err, "duration", time.Since(start))
		return Result{Error: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error("Failed to read backend response", "error", err, "status", resp.StatusCode)
		return Result{Error: err.Error(), StatusCode: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("Backend returned error status",
			"status", resp.StatusCode,
			"body", truncate(string(data), 200),
			"duration", time.Since(start))
		return Result{
			Error:      fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(data)),
			StatusCode: resp.StatusCode,
		}
	}

	if !json.Valid(data) {
		c.log.Warn("Backend returned invalid JSON", "status", resp.StatusCode, "body", truncate(string(data), 200))
		return Result{Error: "invalid JSON in backend response", StatusCode: resp.StatusCode}
	}

	c.log.Debug("Backend response", "status", resp.StatusCode, "size", len(data), "duration", time.Since(start))
	return Result{Body: json.RawMessage(data), StatusCode: resp.StatusCode}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
