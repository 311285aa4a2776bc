package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noot-app/carcinogenscan/internal/backend"
	"github.com/noot-app/carcinogenscan/internal/catalog"
	"github.com/noot-app/carcinogenscan/internal/history"
)

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	Ingredients string `json:"ingredients"`
}

// BatchRequest is the body of POST /api/batch
type BatchRequest struct {
	Products []backend.ProductInput `json:"products"`
}

// HistoryResponse is returned by GET /api/history
type HistoryResponse struct {
	Items             []history.Item `json:"items"`
	SelectedHistoryID string         `json:"selectedHistoryId,omitempty"`
}

// ProductsResponse is returned by GET /api/products
type ProductsResponse struct {
	Found    bool              `json:"found"`
	Count    int               `json:"count"`
	Products []catalog.Product `json:"products"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string        `json:"status"`
	Backend BackendHealth `json:"backend"`
}

// BackendHealth describes the scoring backend's last known liveness
type BackendHealth struct {
	Status    string    `json:"status"`
	URL       string    `json:"url"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := HealthResponse{
		Status:  "ok",
		Backend: BackendHealth{Status: "healthy", URL: s.config.BackendURL},
	}

	err := s.health.Check(c.Request.Context())
	resp.Backend.CheckedAt = s.health.LastChecked()
	if err != nil {
		resp.Status = "degraded"
		resp.Backend.Status = "unhealthy"
		if s.config.IsDevelopment() {
			resp.Backend.Error = err.Error()
		}
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.analyzer.Snapshot())
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.log.Warn("Bad analyze request", "error", err)
		s.sendErrorResponse(c, err, "bad request", http.StatusBadRequest)
		return
	}

	// there is no user-visible cancel, so a dropped connection does not abort the call
	view, err := s.analyzer.SubmitSingle(context.WithoutCancel(c.Request.Context()), req.Ingredients)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.log.Warn("Bad batch request", "error", err)
		s.sendErrorResponse(c, err, "bad request", http.StatusBadRequest)
		return
	}

	view, err := s.analyzer.SubmitBatch(context.WithoutCancel(c.Request.Context()), req.Products)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleToggleMode(c *gin.Context) {
	view, err := s.analyzer.ToggleMode()
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleHistory(c *gin.Context) {
	c.JSON(http.StatusOK, HistoryResponse{
		Items:             s.analyzer.History(),
		SelectedHistoryID: s.analyzer.Snapshot().SelectedHistoryID,
	})
}

func (s *Server) handleSelectHistory(c *gin.Context) {
	view, err := s.analyzer.SelectHistory(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleProducts(c *gin.Context) {
	if s.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": catalog.ErrDisabled.Error()})
		return
	}

	ctx := c.Request.Context()
	barcode := c.Query("barcode")
	name := c.Query("name")
	brand := c.Query("brand")

	limit := DefaultQueryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, MaxQueryLimit)
	}

	start := time.Now()
	var products []catalog.Product

	switch {
	case barcode != "":
		product, err := s.catalog.LookupBarcode(ctx, barcode)
		if err != nil {
			s.log.Error("Barcode lookup failed", "error", err, "barcode", barcode)
			s.sendErrorResponse(c, err, "internal error", http.StatusInternalServerError)
			return
		}
		if product != nil {
			products = []catalog.Product{*product}
		}
	case name != "" || brand != "":
		var err error
		products, err = s.catalog.Search(ctx, name, brand, limit)
		if err != nil {
			s.log.Error("Product search failed", "error", err, "name", name, "brand", brand)
			s.sendErrorResponse(c, err, "internal error", http.StatusInternalServerError)
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "barcode, name or brand is required"})
		return
	}

	if products == nil {
		products = []catalog.Product{}
	}

	s.log.Info("Product query completed", "found", len(products), "duration", time.Since(start))
	c.JSON(http.StatusOK, ProductsResponse{
		Found:    len(products) > 0,
		Count:    len(products),
		Products: products,
	})
}
