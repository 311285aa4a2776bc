package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/noot-app/carcinogenscan/internal/catalog"
	"github.com/noot-app/carcinogenscan/internal/config"
)

// Initializer prepares the optional dependencies shared by the HTTP and stdio modes
type Initializer struct {
	config *config.Config
	log    *slog.Logger
}

// NewInitializer creates an initializer
func NewInitializer(cfg *config.Config, logger *slog.Logger) *Initializer {
	return &Initializer{config: cfg, log: logger}
}

// Catalog opens the product catalog and checks that it is readable.
// It returns nil, nil when no catalog is configured.
func (i *Initializer) Catalog(ctx context.Context) (catalog.Catalog, error) {
	start := time.Now()

	if i.config.IsDevelopment() {
		i.log.Warn("🚧 DEVELOPMENT MODE ENABLED 🚧",
			"environment", i.config.Environment,
			"note", "Detailed error messages will be returned to clients")
	}

	c, err := catalog.New(i.config, i.log)
	if errors.Is(err, catalog.ErrDisabled) {
		i.log.Info("Product catalog disabled", "hint", "set CATALOG_PARQUET_PATH to enable product lookups")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog: %w", err)
	}

	if err := c.TestConnection(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to test catalog: %w", err)
	}

	i.log.Info("Product catalog ready", "duration", time.Since(start))
	return c, nil
}
