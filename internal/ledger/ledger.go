package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

// timeNow is swapped out in tests.
var timeNow = time.Now

// RegistryInfo records how a repository relates to the ioBroker adapter
// registry: whether its adapter name appears in the latest and stable
// source lists, and whether the registered source URL points back at
// this very repository.
type RegistryInfo struct {
	InLatest    bool `json:"inLatest"`
	InStable    bool `json:"inStable"`
	SourceMatch bool `json:"sourceMatch"`
}

// Repository is one tracked repository. Entries are created on first
// sighting and retained across scans; Valid flips to false at scan
// start and back to true only when the repository is re-observed.
type Repository struct {
	FullName      string        `json:"fullName"`
	Owner         string        `json:"owner"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Language      string        `json:"language,omitempty"`
	Fork          bool          `json:"fork"`
	Archived      bool          `json:"archived"`
	Topics        []string      `json:"topics,omitempty"`
	Stars         int           `json:"stars"`
	DefaultBranch string        `json:"defaultBranch,omitempty"`
	URL           string        `json:"url,omitempty"`
	CreatedAt     time.Time     `json:"createdAt,omitzero"`
	UpdatedAt     time.Time     `json:"updatedAt,omitzero"`
	Ancestor      string        `json:"ancestor,omitempty"`
	Registry      *RegistryInfo `json:"registry,omitempty"`
	FirstSeen     time.Time     `json:"firstSeen,omitzero"`
	Valid         bool          `json:"valid"`
	LastScanned   time.Time     `json:"lastScanned,omitzero"`
}

// Summary describes one scan run: the query parameters used and the
// resulting churn counters.
type Summary struct {
	Query      string `json:"query"`
	Strategies int    `json:"strategies"`
	Subdivided int    `json:"subdivided"`
	Found      int    `json:"found"`
	New        int    `json:"new"`
	Updated    int    `json:"updated"`
	Stale      int    `json:"stale"`
	Removed    int    `json:"removed,omitempty"`
}

// Ledger is the persisted mapping of every repository ever observed,
// keyed by "owner/name". It is owned by a single run: loaded at start,
// mutated in memory, rewritten atomically at the end.
type Ledger struct {
	LastUpdated       time.Time              `json:"lastUpdated"`
	TotalRepositories int                    `json:"totalRepositories"`
	ScanSummary       Summary                `json:"scanSummary"`
	Repositories      map[string]*Repository `json:"repositories"`

	// per-scan counters, reset by BeginScan
	created int
	updated int
	seen    map[string]bool
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{Repositories: make(map[string]*Repository)}
}

// Load deserialises a prior ledger from path, or returns an empty
// ledger when the file does not exist yet.
func Load(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	l := New()
	if err := json.Unmarshal(data, l); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	if l.Repositories == nil {
		l.Repositories = make(map[string]*Repository)
	}
	return l, nil
}

// BeginScan marks every existing entry stale and resets the scan
// counters. Entries flip back to valid only when re-observed.
func (l *Ledger) BeginScan() {
	for _, repo := range l.Repositories {
		repo.Valid = false
	}
	l.created = 0
	l.updated = 0
	l.seen = make(map[string]bool)
}

// Get looks up a tracked repository by full name.
func (l *Ledger) Get(fullName string) (*Repository, bool) {
	repo, ok := l.Repositories[fullName]
	return repo, ok
}

// Upsert inserts or refreshes an entry, marking it valid and stamping
// lastScanned. FirstSeen survives refreshes. Returns true when the
// repository was not tracked before. A repository observed twice in one
// scan (a stratum boundary overlap) only counts once.
func (l *Ledger) Upsert(repo Repository) bool {
	now := timeNow().UTC()
	repo.Valid = true
	repo.LastScanned = now

	existing, ok := l.Repositories[repo.FullName]
	if ok {
		repo.FirstSeen = existing.FirstSeen
		if repo.FirstSeen.IsZero() {
			repo.FirstSeen = now
		}
	} else {
		repo.FirstSeen = now
	}
	l.Repositories[repo.FullName] = &repo

	if l.seen == nil {
		l.seen = make(map[string]bool)
	}
	first := !l.seen[repo.FullName]
	l.seen[repo.FullName] = true
	if first {
		if ok {
			l.updated++
		} else {
			l.created++
		}
	}
	return !ok
}

// Finalize computes the run's churn counters, folds them into the
// summary, and optionally drops every entry still stale. The query
// parameters on ScanSummary are set by the caller before saving.
func (l *Ledger) Finalize(cleanup bool) Summary {
	stale := 0
	removed := 0
	for key, repo := range l.Repositories {
		if repo.Valid {
			continue
		}
		if cleanup {
			delete(l.Repositories, key)
			removed++
		} else {
			stale++
		}
	}

	l.ScanSummary.New = l.created
	l.ScanSummary.Updated = l.updated
	l.ScanSummary.Stale = stale
	l.ScanSummary.Removed = removed
	l.ScanSummary.Found = len(l.seen)
	l.TotalRepositories = len(l.Repositories)
	l.LastUpdated = timeNow().UTC()

	return l.ScanSummary
}

// Save serialises the ledger as indented JSON, written atomically
// (write-then-rename) so a crash mid-write never leaves a torn file.
func (l *Ledger) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	data = append(data, '\n')

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}
