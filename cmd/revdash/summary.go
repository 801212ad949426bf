package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"revdash/internal/cli"
	"revdash/internal/core"
	"revdash/internal/dashboard"
	"revdash/internal/log"
	"revdash/internal/render"
)

var (
	clicks  []string
	noColor bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the dashboard as tables",
	Long: `Print the KPI summary, the per-product totals and the monthly series.

Each --click activates a product the way clicking its chart segment does,
in order. Clicking the selected product again clears the selection.

Examples:
  # Everything in focus
  revdash summary

  # Focus on Product B
  revdash summary --click "Product B"

  # Select and deselect, plain output
  revdash summary --click "Product A" --click "Product A" --no-color`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, err := cli.SetupLogger(cfg, os.Stderr)
		if err != nil {
			return err
		}
		format, err := render.NewFormatter(cfg.Locale, cfg.CurrencySymbol)
		if err != nil {
			return err
		}
		dash := dashboard.New(core.SampleDataset())
		useColor := !noColor && !color.NoColor
		if err := runSummary(cmd.Context(), cmd.OutOrStdout(), dash, format, clicks, useColor); err != nil {
			logger.WithComponent(log.ComponentCLI).Error("Summary failed", log.FieldError, err)
			return err
		}
		return nil
	},
}

func init() {
	summaryCmd.Flags().StringArrayVar(&clicks, "click", nil, "activate a product before printing (repeatable)")
	summaryCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// runSummary replays clicks against dash and prints the resulting snapshot.
func runSummary(ctx context.Context, out io.Writer, dash *dashboard.Dashboard, format *render.Formatter, clicks []string, useColor bool) error {
	categories := dash.Categories()
	for _, c := range clicks {
		if !categories.Contains(c) {
			return fmt.Errorf("%w: %q", core.ErrUnknownCategory, c)
		}
	}

	snap := dash.Snapshot()
	for _, c := range clicks {
		snap = dash.Activate(ctx, c)
	}
	return render.NewTerminal(out, format, useColor).Render(snap)
}
