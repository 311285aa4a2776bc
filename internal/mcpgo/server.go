// Package mcpgo exposes the analysis operations as MCP tools using the
// mark3labs SDK, over stdio or streamable HTTP.
package mcpgo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/noot-app/carcinogenscan/internal/backend"
	"github.com/noot-app/carcinogenscan/internal/catalog"
	"github.com/noot-app/carcinogenscan/internal/health"
	"github.com/noot-app/carcinogenscan/internal/history"
	"github.com/noot-app/carcinogenscan/internal/orchestrator"
	"github.com/noot-app/carcinogenscan/internal/version"
)

// Analyzer is the orchestrator surface the tools drive
type Analyzer interface {
	SubmitSingle(ctx context.Context, text string) (orchestrator.View, error)
	SubmitBatch(ctx context.Context, products []backend.ProductInput) (orchestrator.View, error)
	ToggleMode() (orchestrator.View, error)
	SelectHistory(id string) (orchestrator.View, error)
	Snapshot() orchestrator.View
	History() []history.Item
}

var _ Analyzer = (*orchestrator.Orchestrator)(nil)

// responseRecorder wraps http.ResponseWriter to capture response details
type responseRecorder struct {
	http.ResponseWriter
	statusCode    int
	bytesWritten  int
	headerWritten bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.headerWritten {
		return
	}
	r.statusCode = code
	r.headerWritten = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.headerWritten {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(data)
	r.bytesWritten += n
	return n, err
}

// Flush keeps streaming responses working through the recorder
func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Server wraps the mark3labs MCP server
type Server struct {
	mcpServer *server.MCPServer
	analyzer  Analyzer
	catalog   catalog.Catalog
	health    *health.Checker
	log       *slog.Logger
}

// LookupProductResponse is the structured result of lookup_product
type LookupProductResponse struct {
	Found    bool              `json:"found"`
	Count    int               `json:"count"`
	Products []catalog.Product `json:"products"`
}

// BackendHealthResponse is the structured result of backend_health
type BackendHealthResponse struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// NewServer creates the MCP server. cat and checker may be nil, in which case
// the tools that need them are not registered.
func NewServer(analyzer Analyzer, cat catalog.Catalog, checker *health.Checker, logger *slog.Logger) *Server {
	mcpServer := server.NewMCPServer(
		"CarcinogenScan MCP Server",
		version.Tag(),
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithLogging(),
	)

	s := &Server{
		mcpServer: mcpServer,
		analyzer:  analyzer,
		catalog:   cat,
		health:    checker,
		log:       logger,
	}
	s.addTools()
	return s
}

// Handler returns the streamable HTTP transport. Authentication is left to the caller.
func (s *Server) Handler() http.Handler {
	streamable := server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true),
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovery := recover(); recovery != nil {
				s.log.Error("MCP endpoint panic recovered",
					"panic", recovery,
					"method", r.Method,
					"url", r.URL.String(),
					"remote_addr", r.RemoteAddr)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		s.log.Debug("MCP request received",
			"method", r.Method,
			"content_type", r.Header.Get("Content-Type"),
			"content_length", r.ContentLength,
			"remote_addr", r.RemoteAddr)

		recorder := &responseRecorder{ResponseWriter: w}
		streamable.ServeHTTP(recorder, r)

		s.log.Debug("MCP response sent",
			"status_code", recorder.statusCode,
			"response_size", recorder.bytesWritten)
	})
}

// ServeStdio serves the MCP server over stdio (no auth required for local use)
func (s *Server) ServeStdio() error {
	s.log.Info("Starting MCP server in stdio mode")
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) addTools() {
	s.mcpServer.AddTool(mcp.NewTool("analyze_ingredients",
		mcp.WithDescription("Assess the carcinogen risk and NOVA processing group of each ingredient in a free-text, comma-separated ingredient list. Only valid in single mode."),
		mcp.WithString("ingredients",
			mcp.Required(),
			mcp.MinLength(3),
			mcp.Description("Comma-separated ingredient list, at least 3 characters"),
		),
	), s.handleAnalyzeIngredients)

	s.mcpServer.AddTool(mcp.NewTool("analyze_batch",
		mcp.WithDescription("Assess several products at once. Entries without a product name or ingredients are skipped. Only valid in batch mode."),
		mcp.WithArray("products",
			mcp.Required(),
			mcp.Description("Products to analyze"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"product":     map[string]any{"type": "string", "description": "Product name"},
					"ingredients": map[string]any{"type": "string", "description": "Comma-separated ingredient list"},
				},
				"required": []string{"product", "ingredients"},
			}),
		),
	), s.handleAnalyzeBatch)

	s.mcpServer.AddTool(mcp.NewTool("toggle_mode",
		mcp.WithDescription("Switch between single and batch analysis. Clears the shown results but keeps history."),
	), s.handleToggleMode)

	s.mcpServer.AddTool(mcp.NewTool("list_history",
		mcp.WithDescription("List completed analyses of this session, most recent first"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListHistory)

	s.mcpServer.AddTool(mcp.NewTool("select_history",
		mcp.WithDescription("Restore a past analysis, including its mode, input and result"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("History item id from list_history"),
		),
	), s.handleSelectHistory)

	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Return the current view: mode, inputs, results, notices and button state"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetState)

	if s.catalog != nil {
		s.mcpServer.AddTool(mcp.NewTool("lookup_product",
			mcp.WithDescription("Find Open Food Facts products by barcode, or by name and brand, to get their ingredient lists"),
			mcp.WithString("barcode", mcp.Description("The barcode (UPC/EAN); takes precedence over name and brand")),
			mcp.WithString("name", mcp.Description("Product name to search for")),
			mcp.WithString("brand", mcp.Description("Brand name to search for")),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default: 3, max: 10)"),
				mcp.DefaultNumber(3),
				mcp.Min(1),
				mcp.Max(10),
			),
			mcp.WithOutputSchema[LookupProductResponse](),
			mcp.WithIdempotentHintAnnotation(true),
		), s.handleLookupProduct)
	}

	if s.health != nil {
		s.mcpServer.AddTool(mcp.NewTool("backend_health",
			mcp.WithDescription("Check whether the scoring backend is reachable"),
			mcp.WithOutputSchema[BackendHealthResponse](),
			mcp.WithReadOnlyHintAnnotation(true),
		), s.handleBackendHealth)
	}
}

func (s *Server) handleAnalyzeIngredients(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ingredients, err := request.RequireString("ingredients")
	if err != nil {
		s.log.Warn("analyze_ingredients: missing 'ingredients' parameter", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Missing required parameter 'ingredients': %v", err)), nil
	}

	view, err := s.analyzer.SubmitSingle(context.WithoutCancel(ctx), ingredients)
	if err != nil {
		return toolError(err), nil
	}
	return s.structured("analyze_ingredients", view)
}

func (s *Server) handleAnalyzeBatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Products []backend.ProductInput `json:"products"`
	}
	if err := request.BindArguments(&args); err != nil {
		s.log.Warn("analyze_batch: invalid arguments", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Invalid 'products' parameter: %v", err)), nil
	}

	view, err := s.analyzer.SubmitBatch(context.WithoutCancel(ctx), args.Products)
	if err != nil {
		return toolError(err), nil
	}
	return s.structured("analyze_batch", view)
}

func (s *Server) handleToggleMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := s.analyzer.ToggleMode()
	if err != nil {
		return toolError(err), nil
	}
	return s.structured("toggle_mode", view)
}

func (s *Server) handleListHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items := s.analyzer.History()
	return s.structured("list_history", map[string]any{
		"count": len(items),
		"items": items,
	})
}

func (s *Server) handleSelectHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing required parameter 'id': %v", err)), nil
	}

	view, err := s.analyzer.SelectHistory(id)
	if err != nil {
		return toolError(err), nil
	}
	return s.structured("select_history", view)
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.structured("get_state", s.analyzer.Snapshot())
}

func (s *Server) handleLookupProduct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	barcode := request.GetString("barcode", "")
	name := request.GetString("name", "")
	brand := request.GetString("brand", "")

	limit := int(request.GetFloat("limit", 3.0))
	if limit <= 0 {
		limit = 3
	}
	if limit > 10 {
		limit = 10
	}

	var products []catalog.Product
	switch {
	case barcode != "":
		product, err := s.catalog.LookupBarcode(ctx, barcode)
		if err != nil {
			s.log.Error("Barcode lookup failed", "error", err)
			return mcp.NewToolResultError(fmt.Sprintf("Barcode lookup failed: %v", err)), nil
		}
		if product != nil {
			products = append(products, *product)
		}
	case name != "" || brand != "":
		var err error
		products, err = s.catalog.Search(ctx, name, brand, limit)
		if err != nil {
			s.log.Error("Product search failed", "error", err)
			return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
		}
	default:
		return mcp.NewToolResultError("Provide 'barcode', or 'name' and/or 'brand'"), nil
	}

	if products == nil {
		products = []catalog.Product{}
	}
	return s.structured("lookup_product", LookupProductResponse{
		Found:    len(products) > 0,
		Count:    len(products),
		Products: products,
	})
}

func (s *Server) handleBackendHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp := BackendHealthResponse{Healthy: true}
	if err := s.health.Check(ctx); err != nil {
		resp.Healthy = false
		resp.Error = err.Error()
	}
	return s.structured("backend_health", resp)
}

// structured returns both structured content and a JSON text fallback
func (s *Server) structured(tool string, response any) (*mcp.CallToolResult, error) {
	responseJSON, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		s.log.Error("Failed to marshal tool response", "tool", tool, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal response: %v", err)), nil
	}

	s.log.Debug("Returning structured result", "tool", tool, "response_size", len(responseJSON))
	return mcp.NewToolResultStructured(response, string(responseJSON)), nil
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}
