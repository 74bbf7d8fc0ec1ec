// Package config resolves run configuration from three layers:
// built-in defaults, an optional TOML file in the data directory, and
// RADAR_* environment variables (the token also honours the
// conventional GITHUB_TOKEN). Later layers win.
package config
