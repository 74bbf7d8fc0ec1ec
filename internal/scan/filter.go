package scan

import (
	"context"
	"strings"

	gh "github.com/google/go-github/v80/github"

	"github.com/iobroker-community/adapter-radar/internal/logger"
)

const (
	// adapterPrefix is the naming convention for ioBroker adapters:
	// repositories are called "ioBroker.<adapter>".
	adapterPrefix = "iobroker"

	// ManifestPath is the per-adapter marker file whose presence in the
	// default branch confirms a repository really is an adapter.
	ManifestPath = "io-package.json"
)

// Policy selects which membership heuristic a scan applies. The two
// variants trade precision for API cost and must never be mixed within
// one run.
type Policy string

const (
	// PolicyStrict requires the "iobroker.<name>" naming convention and
	// confirms candidates by probing for the manifest file. High
	// precision, one extra API call per unconfirmed candidate.
	PolicyStrict Policy = "strict"

	// PolicyHeuristic accepts on name prefix, description wording, or
	// topic tags alone. No extra API calls, more false positives.
	PolicyHeuristic Policy = "heuristic"
)

// ValidPolicy reports whether p names a known policy.
func ValidPolicy(p Policy) bool {
	return p == PolicyStrict || p == PolicyHeuristic
}

// ContentProber probes for a file's presence in a repository.
type ContentProber interface {
	FileExists(ctx context.Context, owner, repo, path, ref string) (bool, error)
}

// Filter decides whether a raw search record belongs in the tracked
// set.
//
// Reverify controls the trust boundary for strict mode: when false,
// entries already valid in a prior scan skip the manifest probe. That
// saves one API call per known adapter and is sound as long as a
// manifest, once present, stays present.
type Filter struct {
	Policy   Policy
	Reverify bool
	Prober   ContentProber
}

// Match applies the active policy to one record. knownValid says the
// ledger already held this repository as valid before this scan.
//
// Probe failures other than 404 are soft negatives: the record is
// rejected with a warning, never an error, so one flaky lookup cannot
// abort a scan.
func (f *Filter) Match(ctx context.Context, repo *gh.Repository, knownValid bool) bool {
	if f.Policy == PolicyHeuristic {
		return heuristicMatch(repo)
	}

	if !StrictNameMatch(repo.GetName()) {
		return false
	}

	if f.Prober == nil {
		return true
	}
	if knownValid && !f.Reverify {
		return true
	}

	owner := repo.GetOwner().GetLogin()
	exists, err := f.Prober.FileExists(ctx, owner, repo.GetName(), ManifestPath, repo.GetDefaultBranch())
	if err != nil {
		logger.Warn("manifest probe failed for %s: %v", repo.GetFullName(), err)
		return false
	}
	return exists
}

// StrictNameMatch reports whether name follows the adapter naming
// convention: a case-insensitive "iobroker." prefix followed by at
// least one more character. The bare prefix does not match, and the
// prefix must open the name rather than appear inside it.
func StrictNameMatch(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, adapterPrefix+".") && len(lower) > len(adapterPrefix)+1
}

// heuristicMatch accepts a record when its name starts with the bare
// prefix, its description pairs "iobroker" with adapter/integration
// wording, or its topics carry both an iobroker tag and an adapter tag.
func heuristicMatch(repo *gh.Repository) bool {
	name := strings.ToLower(repo.GetName())
	if strings.HasPrefix(name, adapterPrefix) {
		return true
	}

	desc := strings.ToLower(repo.GetDescription())
	if strings.Contains(desc, adapterPrefix) &&
		(strings.Contains(desc, "adapter") || strings.Contains(desc, "integration")) {
		return true
	}

	var hasPrefixTopic, hasAdapterTopic bool
	for _, topic := range repo.Topics {
		lower := strings.ToLower(topic)
		if strings.Contains(lower, adapterPrefix) {
			hasPrefixTopic = true
		}
		if strings.Contains(lower, "adapter") {
			hasAdapterTopic = true
		}
	}
	return hasPrefixTopic && hasAdapterTopic
}
