package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/iobroker-community/adapter-radar/internal/config"
	"github.com/iobroker-community/adapter-radar/internal/history"
	"github.com/iobroker-community/adapter-radar/internal/report"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent scan runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10,
		"maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(context.Background(), historyLimit)
	if err != nil {
		return err
	}

	renderer := report.NewRenderer(report.IsTerminal(os.Stdout.Fd()))
	renderer.History(cmd.OutOrStdout(), runs)
	return nil
}
