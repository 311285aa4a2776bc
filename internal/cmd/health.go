package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noot-app/carcinogenscan/internal/backend"
	"github.com/noot-app/carcinogenscan/internal/config"
	"github.com/noot-app/carcinogenscan/internal/health"
	"github.com/noot-app/carcinogenscan/internal/version"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether the scoring backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := config.NewTextLogger(cmd.ErrOrStderr())

			client := backend.NewClient(cfg.BackendURL, nil, logger)
			if err := health.BackendProbe(client)(cmd.Context()); err != nil {
				return fmt.Errorf("backend %s is unhealthy: %w", client.BaseURL(), err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "backend %s is healthy\n", client.BaseURL())
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
