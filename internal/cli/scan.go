package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iobroker-community/adapter-radar/internal/config"
	"github.com/iobroker-community/adapter-radar/internal/github"
	"github.com/iobroker-community/adapter-radar/internal/history"
	"github.com/iobroker-community/adapter-radar/internal/ledger"
	"github.com/iobroker-community/adapter-radar/internal/logger"
	"github.com/iobroker-community/adapter-radar/internal/report"
	"github.com/iobroker-community/adapter-radar/internal/scan"
)

var (
	scanCleanup  bool
	scanDryRun   bool
	scanReverify bool
	scanPolicy   string
	scanFromYear int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan GitHub for ioBroker adapter repositories",
	Long: `Runs a full discovery scan and merges the findings into the ledger.

Entries not re-observed by the scan are marked stale but kept, unless
--cleanup is given, in which case they are removed. --dry-run executes
the scan but leaves the ledger file and history untouched.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanCleanup, "cleanup", false,
		"remove entries not re-observed by this scan")
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false,
		"scan without writing the ledger or history")
	scanCmd.Flags().BoolVar(&scanReverify, "reverify", false,
		"re-probe the manifest even for entries already known valid")
	scanCmd.Flags().StringVar(&scanPolicy, "policy", "",
		`match policy: "strict" (manifest-confirmed) or "heuristic"`)
	scanCmd.Flags().IntVar(&scanFromYear, "from-year", 0,
		"oldest creation year to scan (default 2014)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return err
	}

	// Flags override file and environment when set.
	if cmd.Flags().Changed("cleanup") {
		cfg.Cleanup = scanCleanup
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = scanDryRun
	}
	if cmd.Flags().Changed("reverify") {
		cfg.Reverify = scanReverify
	}
	if cmd.Flags().Changed("policy") {
		cfg.Policy = scanPolicy
	}
	if cmd.Flags().Changed("from-year") {
		cfg.FromYear = scanFromYear
	}

	policy := scan.Policy(cfg.Policy)
	if !scan.ValidPolicy(policy) {
		return fmt.Errorf("unknown match policy %q (want %q or %q)",
			cfg.Policy, scan.PolicyStrict, scan.PolicyHeuristic)
	}

	ctx := context.Background()

	if cfg.Token == "" {
		logger.Warn("no GitHub token configured; unauthenticated search is limited to 10 requests/minute")
	}
	client := github.NewClient(ctx, cfg.Token)

	led, err := ledger.Load(cfg.LedgerPath)
	if err != nil {
		return err
	}
	cmd.Printf("Loaded ledger with %d repositories.\n", len(led.Repositories))

	var registry *scan.Registry
	if cfg.CheckRegistry {
		registry, err = scan.FetchRegistry(ctx, nil)
		if err != nil {
			logger.Warn("registry fetch failed, skipping cross-reference: %v", err)
			registry = nil
		}
	}

	filter := &scan.Filter{
		Policy:   policy,
		Reverify: cfg.Reverify,
		Prober:   client,
	}
	scanner := scan.New(client, filter, client, registry, led, scan.Options{
		BaseQuery:       cfg.BaseQuery,
		ExtraQualifiers: cfg.ExtraQualifiers,
		FromYear:        cfg.FromYear,
		Cleanup:         cfg.Cleanup,
		ResolveForks:    cfg.ResolveForks,
	})

	started := time.Now()
	cmd.Println("Scanning... this takes a while; the search API is paced deliberately.")

	sum, err := scanner.Run(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	renderer := report.NewRenderer(report.IsTerminal(os.Stdout.Fd()))
	renderer.Summary(cmd.OutOrStdout(), sum)

	if cfg.DryRun {
		cmd.Println("\nDry run: ledger and history left untouched.")
		return nil
	}

	if err := led.Save(cfg.LedgerPath); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	cmd.Printf("\nLedger written to %s\n", cfg.LedgerPath)

	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		logger.Warn("history database unavailable: %v", err)
		return nil
	}
	defer store.Close()

	if _, err := store.Record(ctx, history.Run{
		StartedAt:  started,
		FinishedAt: time.Now(),
		Summary:    sum,
	}); err != nil {
		logger.Warn("recording scan history failed: %v", err)
	}
	return nil
}
