// Package config resolves the game installation directory and process-level
// tunables for nwupd. The game directory is the root every add-on target
// path is resolved against; installed state lives entirely on disk under it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// EnvGameDir is the environment variable to override the game directory.
	// When unset, nwupd assumes it is run from inside the game folder.
	EnvGameDir = "NWUPD_GAME_DIR"

	// EnvHTTPTimeout is the environment variable to configure the HTTP
	// request timeout. Accepts duration strings like "30s", "1m", "2m30s".
	EnvHTTPTimeout = "NWUPD_HTTP_TIMEOUT"

	// EnvGitHubToken is the environment variable holding a GitHub API token
	// for resolving github: add-on sources without rate limiting.
	EnvGitHubToken = "NWUPD_GITHUB_TOKEN"

	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	// The original updater shipped with 60 seconds; large archives on slow
	// mirrors routinely need more than 30.
	DefaultHTTPTimeout = 60 * time.Second

	// UserConfigFile is the name of the per-installation config file,
	// located directly under the game directory.
	UserConfigFile = "nwupd.toml"
)

// Config holds resolved paths for one nwupd run.
type Config struct {
	// GameDir is the game installation root. All add-on target paths are
	// resolved against it and must normalize to somewhere inside it.
	GameDir string

	// ConfigFile is the absolute path to nwupd.toml.
	ConfigFile string
}

// Resolve locates the game directory and validates that it exists.
// This is the only startup-time failure that aborts the process.
func Resolve() (*Config, error) {
	dir := os.Getenv(EnvGameDir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		dir = wd
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve game directory %q: %w", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("game directory not found: %s", abs)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("game directory is not a directory: %s", abs)
	}

	return &Config{
		GameDir:    abs,
		ConfigFile: filepath.Join(abs, UserConfigFile),
	}, nil
}

// GetHTTPTimeout returns the configured HTTP timeout from NWUPD_HTTP_TIMEOUT.
// If not set or invalid, returns DefaultHTTPTimeout.
func GetHTTPTimeout() time.Duration {
	envValue := os.Getenv(EnvHTTPTimeout)
	if envValue == "" {
		return DefaultHTTPTimeout
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		// Invalid duration format, use default
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			EnvHTTPTimeout, envValue, DefaultHTTPTimeout)
		return DefaultHTTPTimeout
	}

	// Validate reasonable range (1 second to 10 minutes)
	if duration < 1*time.Second {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum 1s\n",
			EnvHTTPTimeout, duration)
		return 1 * time.Second
	}
	if duration > 10*time.Minute {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum 10m\n",
			EnvHTTPTimeout, duration)
		return 10 * time.Minute
	}

	return duration
}
