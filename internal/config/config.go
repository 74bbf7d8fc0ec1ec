package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// File is the config file name inside the data directory.
const File = "config.toml"

// Config carries everything a run needs. Values are resolved in three
// layers, later ones winning: built-in defaults, the TOML config file,
// then RADAR_* environment variables.
type Config struct {
	// Token authenticates against the GitHub API. Falls back to the
	// conventional GITHUB_TOKEN variable.
	Token string `toml:"token"`

	// BaseQuery overrides the default "iobroker in:name,description"
	// search base.
	BaseQuery string `toml:"base_query"`

	// ExtraQualifiers are appended verbatim to every query, e.g.
	// "stars:>0" or a language filter.
	ExtraQualifiers string `toml:"extra_qualifiers"`

	// FromYear is the oldest creation year scanned. Zero means the
	// planner's historical floor.
	FromYear int `toml:"from_year"`

	// Policy selects the match heuristic: "strict" or "heuristic".
	Policy string `toml:"policy"`

	// Reverify forces manifest probes even for entries the ledger
	// already holds as valid.
	Reverify bool `toml:"reverify"`

	// ResolveForks walks fork parent chains for matched forks.
	ResolveForks bool `toml:"resolve_forks"`

	// CheckRegistry cross-references matches against the ioBroker
	// source registries.
	CheckRegistry bool `toml:"check_registry"`

	// DryRun suppresses the ledger write and history insert.
	DryRun bool `toml:"dry_run"`

	// Cleanup drops entries not re-observed by this scan.
	Cleanup bool `toml:"cleanup"`

	// LedgerPath is where the JSON ledger lives.
	LedgerPath string `toml:"ledger_path"`

	// HistoryPath is the scan-history SQLite database.
	HistoryPath string `toml:"history_path"`
}

// DefaultDir returns the data directory, ~/.adapter-radar.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".adapter-radar"), nil
}

// Load resolves the configuration for the given data directory. An
// empty dir means the default location. A missing config file is fine;
// a malformed one is an error.
func Load(dir string) (*Config, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Policy:        "strict",
		ResolveForks:  true,
		CheckRegistry: true,
		LedgerPath:    filepath.Join(dir, "ledger.json"),
		HistoryPath:   filepath.Join(dir, "history.db"),
	}

	data, err := os.ReadFile(filepath.Join(dir, File))
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", File, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv layers RADAR_* environment variables over the file values.
func (c *Config) applyEnv() {
	setString(&c.Token, "RADAR_GITHUB_TOKEN", "GITHUB_TOKEN")
	setString(&c.BaseQuery, "RADAR_BASE_QUERY")
	setString(&c.ExtraQualifiers, "RADAR_EXTRA_QUALIFIERS")
	setString(&c.Policy, "RADAR_POLICY")
	setString(&c.LedgerPath, "RADAR_LEDGER_PATH")
	setString(&c.HistoryPath, "RADAR_HISTORY_PATH")

	setBool(&c.Reverify, "RADAR_REVERIFY")
	setBool(&c.ResolveForks, "RADAR_RESOLVE_FORKS")
	setBool(&c.CheckRegistry, "RADAR_CHECK_REGISTRY")
	setBool(&c.DryRun, "RADAR_DRY_RUN")
	setBool(&c.Cleanup, "RADAR_CLEANUP")

	setInt(&c.FromYear, "RADAR_FROM_YEAR")
}

func setString(dst *string, keys ...string) {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			*dst = val
			return
		}
	}
}

func setBool(dst *bool, key string) {
	val := os.Getenv(key)
	if val == "" {
		return
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}
