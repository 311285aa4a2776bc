package cmd

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noot-app/carcinogenscan/internal/backend"
	"github.com/noot-app/carcinogenscan/internal/config"
	"github.com/noot-app/carcinogenscan/internal/history"
	"github.com/noot-app/carcinogenscan/internal/orchestrator"
	"github.com/noot-app/carcinogenscan/internal/render"
)

// errAnalysisFailed marks a run whose result landed on the error channel
var errAnalysisFailed = errors.New("analysis failed")

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [ingredients...]",
		Short: "Analyze an ingredient list, or several products with --batch",
		Example: `  carcinogenscan analyze "bacon, lettuce, tomato"
  carcinogenscan analyze --batch "Cereal: corn, sugar | Granola: oats, honey"`,
		RunE: runAnalyze,
	}

	cmd.Flags().String("batch", "", `Products as "Product: ingredients" entries separated by " | "`)
	cmd.Flags().Bool("json", false, "Print the resulting view as JSON")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	batch, _ := cmd.Flags().GetString("batch")
	asJSON, _ := cmd.Flags().GetBool("json")

	if batch == "" && len(args) == 0 {
		return errors.New("provide ingredients as arguments or products with --batch")
	}
	if batch != "" && len(args) > 0 {
		return errors.New("use either ingredient arguments or --batch, not both")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := config.NewTextLogger(cmd.ErrOrStderr())

	client := backend.NewClient(cfg.BackendURL, nil, logger)
	o := orchestrator.New(client, logger)
	defer o.Close()

	var view orchestrator.View
	if batch != "" {
		if _, err := o.ToggleMode(); err != nil {
			return err
		}
		view, err = o.SubmitBatch(cmd.Context(), history.DecodeBatchInput(batch))
	} else {
		view, err = o.SubmitSingle(cmd.Context(), strings.Join(args, " "))
	}
	if err != nil {
		return err
	}

	if err := printView(cmd.OutOrStdout(), view, asJSON); err != nil {
		return err
	}
	if view.Failure != nil {
		return errAnalysisFailed
	}
	return nil
}

func printView(w io.Writer, view orchestrator.View, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	return render.NewPrinter(w).View(view)
}
