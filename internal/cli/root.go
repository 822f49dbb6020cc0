// Package cli defines and implements the CLI commands for the adscout
// executable.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adscout",
		Short: "A polite listings crawler with model-assisted scoring",
		Long: `adscout crawls classified ad search results for the configured queries,
scores each listing with a language model (falling back to a local
heuristic), and delivers the results to a webhook.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml",
		"path to the configuration file")

	cmd.AddCommand(newCrawlCmd())
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
