// Command revdash serves the revenue dashboard and prints it in the terminal.
package main

import (
	"github.com/spf13/cobra"

	"revdash/internal/cli"
	"revdash/internal/config"
)

// Set by the linker at build time.
var version = "dev"

// cfg holds the validated configuration loaded before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "revdash",
	Short:        "Revenue dashboard over monthly product sales",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		loaded, err := cli.LoadAndValidateConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(summaryCmd)
}
