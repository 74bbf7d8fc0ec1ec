package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/iobroker-community/adapter-radar/internal/github"
	"github.com/iobroker-community/adapter-radar/internal/ledger"
	"github.com/iobroker-community/adapter-radar/internal/logger"
	"github.com/iobroker-community/adapter-radar/internal/plan"
)

// DefaultStrategyPause is the rest inserted between strata on top of
// the per-request pacing inside the fetcher.
const DefaultStrategyPause = 2 * time.Second

// Searcher executes one search query to exhaustion.
type Searcher interface {
	SearchRepositories(ctx context.Context, query string) ([]*gh.Repository, int, error)
}

// Options configures a scan run.
type Options struct {
	BaseQuery       string
	ExtraQualifiers string
	FromYear        int
	ToYear          int // zero means the current year
	Cleanup         bool
	ResolveForks    bool
	StrategyPause   time.Duration
}

// Scanner drives one full scan: it walks every planned stratum,
// subdivides saturated ones, filters the raw records, and merges the
// matches into the ledger. All state lives on the scanner and the
// ledger it was given; nothing is ambient.
type Scanner struct {
	searcher Searcher
	getter   RepositoryGetter // optional, enables fork-chain resolution
	filter   *Filter
	registry *Registry // optional, enables registry cross-reference
	ledger   *ledger.Ledger
	opts     Options
}

// New assembles a scanner. getter and registry may be nil, which
// disables the corresponding enrichment.
func New(searcher Searcher, filter *Filter, getter RepositoryGetter, registry *Registry,
	led *ledger.Ledger, opts Options,
) *Scanner {
	if opts.ToYear == 0 {
		opts.ToYear = time.Now().Year()
	}
	if opts.StrategyPause == 0 {
		opts.StrategyPause = DefaultStrategyPause
	}
	return &Scanner{
		searcher: searcher,
		getter:   getter,
		filter:   filter,
		registry: registry,
		ledger:   led,
		opts:     opts,
	}
}

// Run executes the scan and returns the finalised summary. Saturation
// is handled internally by subdivision; every other fetch error aborts
// the run before the ledger is finalised, so a failed scan never
// produces a misleading "everything went stale" result.
func (s *Scanner) Run(ctx context.Context) (ledger.Summary, error) {
	strategies := plan.Plan(s.opts.BaseQuery, s.opts.ExtraQualifiers, s.opts.FromYear, s.opts.ToYear)

	// Snapshot which entries were valid before the scan resets the
	// flags; strict filtering may trust these and skip the probe.
	prevValid := make(map[string]bool, len(s.ledger.Repositories))
	for key, repo := range s.ledger.Repositories {
		prevValid[key] = repo.Valid
	}

	s.ledger.BeginScan()
	subdivided := 0

	for i, strategy := range strategies {
		logger.Section(strategy.Description())

		records, saturated, err := s.fetchStratum(ctx, strategy)
		if err != nil {
			return ledger.Summary{}, err
		}

		if saturated {
			subdivided++
			records, err = s.fetchSubdivided(ctx, strategy)
			if err != nil {
				return ledger.Summary{}, err
			}
		}

		logger.Info("%s: %d records", strategy.Description(), len(records))
		if err := s.absorb(ctx, records, prevValid); err != nil {
			return ledger.Summary{}, err
		}

		if i < len(strategies)-1 {
			if err := sleep(ctx, s.opts.StrategyPause); err != nil {
				return ledger.Summary{}, err
			}
		}
	}

	query := orDefault(s.opts.BaseQuery)
	if s.opts.ExtraQualifiers != "" {
		query += " " + s.opts.ExtraQualifiers
	}
	s.ledger.ScanSummary = ledger.Summary{
		Query:      query,
		Strategies: len(strategies),
		Subdivided: subdivided,
	}
	return s.ledger.Finalize(s.opts.Cleanup), nil
}

// fetchStratum runs one strategy through the fetcher and classifies the
// outcome. Saturation comes in two shapes: the platform's explicit
// ceiling error, or a reported total at or above the ceiling (the
// first page succeeds but later results would be silently truncated).
func (s *Scanner) fetchStratum(ctx context.Context, strategy plan.Strategy) ([]*gh.Repository, bool, error) {
	records, total, err := s.searcher.SearchRepositories(ctx, strategy.Query())
	if err != nil {
		if errors.Is(err, github.ErrSearchCapped) {
			logger.Debug("%s: ceiling error, subdividing", strategy.Description())
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("fetch stratum %s: %w", strategy.Description(), err)
	}

	if total >= github.SearchCeiling && strategy.Month == 0 {
		logger.Debug("%s: %d results saturate the ceiling, subdividing", strategy.Description(), total)
		return nil, true, nil
	}
	return records, false, nil
}

// fetchSubdivided replaces a saturated yearly stratum with its twelve
// monthly strata. A month that still saturates is kept as-is with a
// warning; months are the finest granularity supported.
func (s *Scanner) fetchSubdivided(ctx context.Context, strategy plan.Strategy) ([]*gh.Repository, error) {
	var records []*gh.Repository

	for _, sub := range plan.Subdivide(strategy) {
		if err := sleep(ctx, s.opts.StrategyPause); err != nil {
			return nil, err
		}

		monthly, total, err := s.searcher.SearchRepositories(ctx, sub.Query())
		if err != nil && !errors.Is(err, github.ErrSearchCapped) {
			return nil, fmt.Errorf("fetch stratum %s: %w", sub.Description(), err)
		}
		if errors.Is(err, github.ErrSearchCapped) || total >= github.SearchCeiling {
			logger.Warn("%s still saturates the result ceiling; results may be incomplete", sub.Description())
		}
		records = append(records, monthly...)
	}

	return records, nil
}

// absorb filters raw records and merges the matches into the ledger,
// applying optional fork-chain and registry enrichment.
func (s *Scanner) absorb(ctx context.Context, records []*gh.Repository, prevValid map[string]bool) error {
	for _, record := range records {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fullName := record.GetFullName()
		if !s.filter.Match(ctx, record, prevValid[fullName]) {
			continue
		}

		entry := project(record)
		if s.opts.ResolveForks && record.GetFork() && s.getter != nil {
			if ancestor := ResolveAncestor(ctx, s.getter, record); ancestor != fullName {
				entry.Ancestor = ancestor
			}
		}
		if s.registry != nil {
			if name := AdapterName(record.GetName()); name != "" {
				info := s.registry.Lookup(name, fullName)
				entry.Registry = &info
			}
		}

		if s.ledger.Upsert(entry) {
			logger.Debug("new repository: %s", fullName)
		}
	}
	return nil
}

// project maps a raw API record onto the ledger's tracked shape.
// Records are never mutated, only read.
func project(record *gh.Repository) ledger.Repository {
	return ledger.Repository{
		FullName:      record.GetFullName(),
		Owner:         record.GetOwner().GetLogin(),
		Name:          record.GetName(),
		Description:   record.GetDescription(),
		Language:      record.GetLanguage(),
		Fork:          record.GetFork(),
		Archived:      record.GetArchived(),
		Topics:        record.Topics,
		Stars:         record.GetStargazersCount(),
		DefaultBranch: record.GetDefaultBranch(),
		URL:           record.GetHTMLURL(),
		CreatedAt:     record.GetCreatedAt().Time,
		UpdatedAt:     record.GetUpdatedAt().Time,
	}
}

func orDefault(base string) string {
	if base == "" {
		return plan.DefaultBaseQuery
	}
	return base
}

// sleep is a context-aware pause.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
