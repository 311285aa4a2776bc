// Package server exposes the analysis operations as a JSON API for the
// browser front-end and mounts the MCP endpoint next to it.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/noot-app/carcinogenscan/internal/auth"
	"github.com/noot-app/carcinogenscan/internal/backend"
	"github.com/noot-app/carcinogenscan/internal/catalog"
	"github.com/noot-app/carcinogenscan/internal/config"
	"github.com/noot-app/carcinogenscan/internal/health"
	"github.com/noot-app/carcinogenscan/internal/history"
	"github.com/noot-app/carcinogenscan/internal/orchestrator"
)

// Analyzer is the orchestrator surface the API drives
type Analyzer interface {
	SubmitSingle(ctx context.Context, text string) (orchestrator.View, error)
	SubmitBatch(ctx context.Context, products []backend.ProductInput) (orchestrator.View, error)
	ToggleMode() (orchestrator.View, error)
	SelectHistory(id string) (orchestrator.View, error)
	Snapshot() orchestrator.View
	History() []history.Item
}

var _ Analyzer = (*orchestrator.Orchestrator)(nil)

// Server is the HTTP front of the service
type Server struct {
	config   *config.Config
	analyzer Analyzer
	catalog  catalog.Catalog
	health   *health.Checker
	auth     *auth.BearerTokenAuth
	mcp      http.Handler
	log      *slog.Logger
	router   *gin.Engine
}

// Deps are the collaborators of the server. Catalog and MCP are optional.
type Deps struct {
	Analyzer Analyzer
	Catalog  catalog.Catalog
	Health   *health.Checker
	Auth     *auth.BearerTokenAuth
	MCP      http.Handler
}

// New creates the server and its routes
func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		config:   cfg,
		analyzer: deps.Analyzer,
		catalog:  deps.Catalog,
		health:   deps.Health,
		auth:     deps.Auth,
		mcp:      deps.MCP,
		log:      logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	if len(s.config.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Mcp-Session-Id"},
			AllowCredentials: true,
			MaxAge:           CORSMaxAge,
		}))
	}

	// health stays public
	r.GET("/health", s.handleHealth)

	api := r.Group("/api", s.auth.Middleware())
	{
		api.GET("/state", s.handleState)
		api.POST("/analyze", s.handleAnalyze)
		api.POST("/batch", s.handleBatch)
		api.POST("/mode/toggle", s.handleToggleMode)
		api.GET("/history", s.handleHistory)
		api.POST("/history/:id/select", s.handleSelectHistory)
		api.GET("/products", s.handleProducts)
	}

	if s.mcp != nil {
		r.Any("/mcp", gin.WrapH(s.auth.Wrap(s.mcp)))
	}
	return r
}

// Start serves until ctx is canceled or SIGINT/SIGTERM arrives, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.router,
		ReadTimeout:  HTTPReadTimeout,
		WriteTimeout: HTTPWriteTimeout,
		IdleTimeout:  HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("🌐 HTTP server listening",
			"addr", srv.Addr,
			"backend_url", s.config.BackendURL,
			"auth_required", s.auth.Enabled(),
			"catalog", s.catalog != nil,
			"mcp_endpoint", s.mcp != nil)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.log.Error("HTTP server error", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), HTTPShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server shutdown error", "error", err)
		return err
	}

	s.log.Info("Server stopped")
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"remote_addr", c.ClientIP())
	}
}
