package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/noot-app/carcinogenscan/internal/auth"
	"github.com/noot-app/carcinogenscan/internal/backend"
	"github.com/noot-app/carcinogenscan/internal/catalog"
	"github.com/noot-app/carcinogenscan/internal/config"
	"github.com/noot-app/carcinogenscan/internal/health"
	"github.com/noot-app/carcinogenscan/internal/mcpgo"
	"github.com/noot-app/carcinogenscan/internal/orchestrator"
	"github.com/noot-app/carcinogenscan/internal/server"
)

const rootLong = `CarcinogenScan assesses the carcinogen risk and NOVA processing group of
food ingredients by orchestrating calls to an AI scoring backend.

The server operates in two modes:

1. HTTP Mode (default): JSON API for the browser front-end plus a
   streamable MCP endpoint at /mcp
   - Bearer token authentication when AUTH_TOKEN is set (except /health)
   - CORS for the configured front-end origins

2. STDIO Mode (--stdio): For local MCP clients such as Claude Desktop
   - Uses stdio pipes for communication
   - No authentication required

Available MCP Tools:
- analyze_ingredients: Analyze a free-text ingredient list
- analyze_batch: Analyze several products at once
- toggle_mode, list_history, select_history, get_state
- lookup_product: Find Open Food Facts products (when CATALOG_PARQUET_PATH is set)
- backend_health: Check the scoring backend

The analyze and health subcommands work against the backend directly from
the terminal; fetch-catalog downloads the Open Food Facts product dump.`

// NewRootCmd builds the command tree. Each call returns fresh commands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "carcinogenscan",
		Short:         "AI ingredient analysis orchestrator",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdio, _ := cmd.Flags().GetBool("stdio")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if stdio {
				return runStdioMode(cmd.Context(), cfg)
			}
			return runHTTPMode(cmd.Context(), cfg)
		},
	}

	cmd.Flags().Bool("stdio", false, "Run in stdio mode for local MCP clients (default: HTTP mode)")
	cmd.PersistentFlags().String("config", "", "Path to a YAML config file (environment variables still override it)")
	cmd.PersistentFlags().String("backend-url", "", "Scoring backend base URL (overrides BACKEND_URL)")

	cmd.AddCommand(newAnalyzeCmd(), newHealthCmd(), newFetchCatalogCmd(), newVersionCmd())
	return cmd
}

// loadConfig applies --config and --backend-url on top of the environment
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg := config.Load()
	if path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if url, _ := cmd.Flags().GetString("backend-url"); url != "" {
		cfg.BackendURL = url
	}
	return cfg, nil
}

// app holds the collaborators shared by both serving modes
type app struct {
	orchestrator *orchestrator.Orchestrator
	health       *health.Checker
	catalog      catalog.Catalog
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	client := backend.NewClient(cfg.BackendURL, nil, logger)

	cat, err := server.NewInitializer(cfg, logger).Catalog(ctx)
	if err != nil {
		logger.Error("Failed to initialize catalog", "error", err)
		return nil, err
	}

	return &app{
		orchestrator: orchestrator.New(client, logger),
		health:       health.NewChecker(health.BackendProbe(client), cfg.HealthCacheTTL(), logger),
		catalog:      cat,
	}, nil
}

func (a *app) Close() {
	_ = a.orchestrator.Close()
	if a.catalog != nil {
		_ = a.catalog.Close()
	}
}

// runStdioMode runs the MCP server in stdio mode for local clients
func runStdioMode(ctx context.Context, cfg *config.Config) error {
	// stderr keeps the stdio pipes clean for MCP traffic
	logger := config.NewLogger(true)

	logger.Info("🔌 Starting CarcinogenScan in STDIO mode",
		"mode", "stdio",
		"backend_url", cfg.BackendURL,
		"auth", "not required for stdio mode",
		"transport", "stdio pipes")

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return mcpgo.NewServer(a.orchestrator, a.catalog, a.health, logger).ServeStdio()
}

// runHTTPMode serves the JSON API and the MCP endpoint
func runHTTPMode(ctx context.Context, cfg *config.Config) error {
	logger := config.NewLogger(false)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("🌐 Starting CarcinogenScan in HTTP mode",
		"mode", "http",
		"backend_url", cfg.BackendURL,
		"auth", cfg.AuthToken != "",
		"port", cfg.Port)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	mcpSrv := mcpgo.NewServer(a.orchestrator, a.catalog, a.health, logger)

	srv := server.New(cfg, server.Deps{
		Analyzer: a.orchestrator,
		Catalog:  a.catalog,
		Health:   a.health,
		Auth:     auth.NewBearerTokenAuth(cfg.AuthToken),
		MCP:      mcpSrv.Handler(),
	}, logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// Run is the main entry point for the CLI application
func Run() error {
	return Execute()
}
