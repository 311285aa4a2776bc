package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noot-app/carcinogenscan/internal/auth"
	"github.com/noot-app/carcinogenscan/internal/backend"
	"github.com/noot-app/carcinogenscan/internal/catalog"
	"github.com/noot-app/carcinogenscan/internal/config"
	"github.com/noot-app/carcinogenscan/internal/health"
	"github.com/noot-app/carcinogenscan/internal/orchestrator"
)

const testToken = "test-token"

// fakeScoringBackend answers like the scoring service: objects are single
// analyses, arrays are batches
func fakeScoringBackend(t *testing.T, healthy bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/ingredients", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")

		if bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
			var products []backend.ProductInput
			_ = json.Unmarshal(body, &products)
			out := map[string]any{}
			for _, p := range products {
				out[p.Product] = map[string]any{"ingredients": []map[string]any{
					{"name": p.Ingredients, "risk_level": "Low", "score": 2, "nova_group": "1"},
				}}
			}
			_ = json.NewEncoder(w).Encode(out)
			return
		}

		_, _ = w.Write([]byte(`{"ingredients":[{"name":"bacon","risk_level":"High","score":8,"nova_group":"4","source":"IARC","explanation":"Processed meat"}]}`))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			http.Error(w, "model loading", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type testEnv struct {
	server *Server
	orch   *orchestrator.Orchestrator
}

func newTestEnv(t *testing.T, opts ...func(*config.Config, *Deps)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := config.NewTestLogger(io.Discard, "ERROR")
	scoring := fakeScoringBackend(t, true)
	client := backend.NewClient(scoring.URL, scoring.Client(), logger)

	orch := orchestrator.New(client, logger)
	t.Cleanup(func() { _ = orch.Close() })

	cfg := &config.Config{
		BackendURL:     scoring.URL,
		AuthToken:      testToken,
		Environment:    "development",
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	deps := Deps{
		Analyzer: orch,
		Catalog:  catalog.NewMockEngine(logger),
		Health:   health.NewChecker(health.BackendProbe(client), 10*time.Second, logger),
		Auth:     auth.NewBearerTokenAuth(testToken),
		MCP: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}),
	}
	for _, opt := range opts {
		opt(cfg, &deps)
	}

	return &testEnv{server: New(cfg, deps, logger), orch: orch}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestServer_Health(t *testing.T) {
	t.Run("healthy backend", func(t *testing.T) {
		env := newTestEnv(t)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode[HealthResponse](t, w)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "healthy", resp.Backend.Status)
		assert.False(t, resp.Backend.CheckedAt.IsZero())
	})

	t.Run("unhealthy backend", func(t *testing.T) {
		env := newTestEnv(t, func(cfg *config.Config, deps *Deps) {
			down := fakeScoringBackend(t, false)
			client := backend.NewClient(down.URL, down.Client(), config.NewTestLogger(io.Discard, "ERROR"))
			deps.Health = health.NewChecker(health.BackendProbe(client), time.Second, config.NewTestLogger(io.Discard, "ERROR"))
		})

		w := env.do(t, http.MethodGet, "/health", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decode[HealthResponse](t, w)
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unhealthy", resp.Backend.Status)
		assert.Contains(t, resp.Backend.Error, "503")
	})
}

func TestServer_AnalyzeSingle(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/analyze", AnalyzeRequest{Ingredients: "bacon, lettuce, tomato"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	view := decode[map[string]any](t, w)
	assert.Equal(t, "showing_result", view["status"])
	assert.NotEmpty(t, view["selectedHistoryId"])

	single := view["singleResult"].(map[string]any)
	rows := single["ingredients"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "4", rows[0].(map[string]any)["nova_group"])

	w = env.do(t, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	hist := decode[HistoryResponse](t, w)
	require.Len(t, hist.Items, 1)
	assert.Equal(t, hist.Items[0].ID, hist.SelectedHistoryID)
}

func TestServer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "input too short",
			method:         http.MethodPost,
			path:           "/api/analyze",
			body:           AnalyzeRequest{Ingredients: "ab"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Please enter at least one food item.",
		},
		{
			name:           "batch while in single mode",
			method:         http.MethodPost,
			path:           "/api/batch",
			body:           BatchRequest{Products: []backend.ProductInput{{Product: "A", Ingredients: "corn"}}},
			expectedStatus: http.StatusConflict,
			expectedError:  orchestrator.ErrWrongMode.Error(),
		},
		{
			name:           "unknown history id",
			method:         http.MethodPost,
			path:           "/api/history/nope/select",
			expectedStatus: http.StatusNotFound,
			expectedError:  orchestrator.ErrHistoryNotFound.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			w := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedError, decode[map[string]any](t, w)["error"])
		})
	}
}

func TestServer_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "bad request")
}

func TestServer_BatchFlowAndHistorySelect(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/analyze", AnalyzeRequest{Ingredients: "bacon, lettuce, tomato"})
	require.Equal(t, http.StatusOK, w.Code)
	singleID := decode[map[string]any](t, w)["selectedHistoryId"].(string)

	w = env.do(t, http.MethodPost, "/api/mode/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[map[string]any](t, w)
	assert.Equal(t, "batch", view["mode"])
	assert.Nil(t, view["singleResult"])

	w = env.do(t, http.MethodPost, "/api/batch", BatchRequest{Products: []backend.ProductInput{
		{Product: "Cereal A", Ingredients: "corn, sugar"},
		{Product: "", Ingredients: "x"},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = decode[map[string]any](t, w)
	batch := view["batchResult"].(map[string]any)
	assert.Contains(t, batch, "Cereal A")
	assert.Len(t, batch, 1)

	w = env.do(t, http.MethodPost, "/api/history/"+singleID+"/select", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[map[string]any](t, w)
	assert.Equal(t, "single", view["mode"])
	assert.Equal(t, "bacon, lettuce, tomato", view["singleInput"])
	assert.Nil(t, view["batchResult"])

	w = env.do(t, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, singleID, decode[map[string]any](t, w)["selectedHistoryId"])
}

func TestServer_Auth(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"state requires token", http.MethodGet, "/api/state", http.StatusUnauthorized},
		{"analyze requires token", http.MethodPost, "/api/analyze", http.StatusUnauthorized},
		{"mcp requires token", http.MethodPost, "/mcp", http.StatusUnauthorized},
		{"health is public", http.MethodGet, "/health", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			env.server.Handler().ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	t.Run("mcp with token", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/mcp", nil)
		assert.Equal(t, http.StatusAccepted, w.Code)
	})

	t.Run("auth disabled without token", func(t *testing.T) {
		open := newTestEnv(t, func(cfg *config.Config, deps *Deps) {
			cfg.AuthToken = ""
			deps.Auth = auth.NewBearerTokenAuth("")
		})
		req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
		w := httptest.NewRecorder()
		open.server.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestServer_Products(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedCount  int
	}{
		{"barcode hit", "?barcode=3017620422003", http.StatusOK, 1},
		{"barcode miss", "?barcode=0000000000000", http.StatusOK, 0},
		{"search by brand", "?brand=ferrero", http.StatusOK, 1},
		{"search with limit", "?name=o&limit=1", http.StatusOK, 1},
		{"missing parameters", "", http.StatusBadRequest, 0},
		{"bad limit", "?name=nutella&limit=zero", http.StatusBadRequest, 0},
	}

	env := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/products"+tt.query, nil)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus != http.StatusOK {
				return
			}

			resp := decode[ProductsResponse](t, w)
			assert.Equal(t, tt.expectedCount, resp.Count)
			assert.Equal(t, tt.expectedCount > 0, resp.Found)
			assert.NotNil(t, resp.Products)
		})
	}

	t.Run("catalog disabled", func(t *testing.T) {
		disabled := newTestEnv(t, func(cfg *config.Config, deps *Deps) { deps.Catalog = nil })
		w := disabled.do(t, http.MethodGet, "/api/products?barcode=1", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestServer_CORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
