package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/iobroker-community/adapter-radar/internal/config"
	"github.com/iobroker-community/adapter-radar/internal/ledger"
	"github.com/iobroker-community/adapter-radar/internal/report"
)

var reportLimit int

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the current state of the repository ledger",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().IntVarP(&reportLimit, "limit", "n", 10,
		"maximum entries per list")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return err
	}

	led, err := ledger.Load(cfg.LedgerPath)
	if err != nil {
		return err
	}

	renderer := report.NewRenderer(report.IsTerminal(os.Stdout.Fd()))
	renderer.Ledger(cmd.OutOrStdout(), led, reportLimit)
	return nil
}
