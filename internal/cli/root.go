// Package cli wires the cobra command surface of adapter-radar.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/iobroker-community/adapter-radar/internal/logger"
)

// version is stamped by main at startup.
var version = "dev"

var (
	dataDir     string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "adapter-radar",
	Short: "Discover and track ioBroker adapter repositories on GitHub",
	Long: `adapter-radar enumerates every ioBroker adapter repository on GitHub
and keeps a persistent ledger of what it has seen.

The search API caps any query at 1,000 results, so a scan partitions
the search space by creation year (subdividing into months when a year
saturates) crossed with fork/archive status, guaranteeing complete
coverage. Results are merged into a JSON ledger that tracks additions,
churn, and disappearances across runs.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"data directory holding config, ledger, and history (default ~/.adapter-radar)")
}

// Execute runs the root command with the given version string.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}
