package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/iobroker-community/adapter-radar/internal/ledger"
)

const (
	// LatestRegistryURL lists every adapter admitted to the latest
	// repository.
	LatestRegistryURL = "https://raw.githubusercontent.com/ioBroker/ioBroker.repositories/master/sources-dist.json"

	// StableRegistryURL lists the subset promoted to stable.
	StableRegistryURL = "https://raw.githubusercontent.com/ioBroker/ioBroker.repositories/master/sources-dist-stable.json"
)

// ownerRepoPattern extracts the owner/repo segment from a registry
// source URL. Meta URLs point at raw.githubusercontent.com, download
// URLs at github.com; both carry owner/repo as the first two path
// segments, e.g. "https://github.com/fred/ioBroker.hue" -> "fred/ioBroker.hue".
var ownerRepoPattern = regexp.MustCompile(`(?:raw\.githubusercontent|github)\.com/([^/\s]+/[^/\s#?]+)`)

// registrySource is one entry in a sources-dist document. Only the
// fields the cross-reference needs are decoded.
type registrySource struct {
	Meta string `json:"meta"`
	URL  string `json:"url"`
}

// Registry holds the two ioBroker source lists for cross-referencing
// discovered repositories against the official adapter registry.
type Registry struct {
	latest map[string]registrySource
	stable map[string]registrySource
}

// FetchRegistry downloads and parses both registry documents. A scan
// treats a fetch failure as a soft condition: enrichment is skipped,
// discovery still runs.
func FetchRegistry(ctx context.Context, client *http.Client) (*Registry, error) {
	if client == nil {
		client = http.DefaultClient
	}

	latest, err := fetchSources(ctx, client, LatestRegistryURL)
	if err != nil {
		return nil, fmt.Errorf("fetch latest registry: %w", err)
	}
	stable, err := fetchSources(ctx, client, StableRegistryURL)
	if err != nil {
		return nil, fmt.Errorf("fetch stable registry: %w", err)
	}

	return &Registry{latest: latest, stable: stable}, nil
}

func fetchSources(ctx context.Context, client *http.Client, url string) (map[string]registrySource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	sources := make(map[string]registrySource)
	if err := json.NewDecoder(resp.Body).Decode(&sources); err != nil {
		return nil, fmt.Errorf("decode registry document: %w", err)
	}

	// Adapter names are lowercase by convention; normalise the keys so
	// lookups are case-insensitive.
	normalised := make(map[string]registrySource, len(sources))
	for name, src := range sources {
		normalised[strings.ToLower(name)] = src
	}
	return normalised, nil
}

// Lookup cross-references one repository: is its adapter name
// registered, and does the registered source URL point back at this
// repository's owner/repo (case-insensitive)?
//
// adapterName is the part after the "iobroker." prefix; fullName is the
// repository's "owner/name" identity.
func (r *Registry) Lookup(adapterName, fullName string) ledger.RegistryInfo {
	key := strings.ToLower(adapterName)

	info := ledger.RegistryInfo{}
	latest, inLatest := r.latest[key]
	_, inStable := r.stable[key]
	info.InLatest = inLatest
	info.InStable = inStable

	if inLatest {
		info.SourceMatch = sourceMatches(latest, fullName)
	}
	return info
}

// AdapterName derives the registry key from a repository name:
// everything after the "iobroker." prefix, lowercased. Names without
// the prefix return empty.
func AdapterName(repoName string) string {
	lower := strings.ToLower(repoName)
	if !strings.HasPrefix(lower, adapterPrefix+".") {
		return ""
	}
	return lower[len(adapterPrefix)+1:]
}

// sourceMatches compares the owner/repo segment of a registered source
// URL (meta URL preferred, download URL as fallback) against fullName.
func sourceMatches(src registrySource, fullName string) bool {
	for _, u := range []string{src.Meta, src.URL} {
		if u == "" {
			continue
		}
		if m := ownerRepoPattern.FindStringSubmatch(u); m != nil {
			if strings.EqualFold(m[1], fullName) {
				return true
			}
		}
	}
	return false
}
