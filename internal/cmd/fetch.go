package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noot-app/carcinogenscan/internal/config"
	"github.com/noot-app/carcinogenscan/internal/dataset"
)

func newFetchCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch-catalog",
		Short: "Download the Open Food Facts parquet used for product lookups and exit",
		Long: `Download or refresh the Open Food Facts product dump at CATALOG_PARQUET_PATH.

The dataset is several GB. An existing copy is kept when its ETag (or size)
still matches the remote file, unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.CatalogEnabled() {
				return errors.New("CATALOG_PARQUET_PATH is not set")
			}

			logger := config.NewTextLogger(cmd.ErrOrStderr())
			logger.Info("🗄️  Fetching catalog dataset", "url", cfg.CatalogURL, "path", cfg.CatalogPath)

			outcome, err := dataset.NewManager(cfg.CatalogURL, cfg.CatalogPath, logger).Ensure(cmd.Context(), force)
			if err != nil {
				logger.Error("Failed to fetch dataset", "error", err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "catalog %s: %s\n", cfg.CatalogPath, outcome)
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Download even when the local copy is up-to-date")
	return cmd
}
