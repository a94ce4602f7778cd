// Package userconfig provides per-installation settings for nwupd.
// Settings are stored in <game dir>/nwupd.toml and can be modified
// via the `nwupd config` command.
package userconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents user-configurable settings.
type Config struct {
	// ManifestURL overrides the built-in manifest location.
	ManifestURL string `toml:"manifest_url"`

	// InsecureTLS disables TLS certificate verification for downloads.
	// The original updater did this unconditionally; here it is an explicit
	// opt-in for mirrors with self-signed certificates, and nwupd logs a
	// warning on every run while it is enabled.
	InsecureTLS bool `toml:"insecure_tls"`

	// DownloadRetries is the number of attempts per download. Range 1-10.
	DownloadRetries int `toml:"download_retries"`

	// ManifestKeyFingerprint, when set, pins the PGP key that must have
	// signed the manifest. Requires ManifestKeyURL on first use.
	ManifestKeyFingerprint string `toml:"manifest_key_fingerprint"`

	// ManifestKeyURL is where the armored public key is fetched from when
	// it is not cached locally.
	ManifestKeyURL string `toml:"manifest_key_url"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		DownloadRetries: 3,
	}
}

// Load reads the config file at path and returns the configuration.
// Returns default values if the file doesn't exist.
// Returns an error only for file parsing issues, not missing files.
func Load(path string) (*Config, error) {
	userCfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return userCfg, nil // File doesn't exist, use defaults
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), userCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if userCfg.DownloadRetries < 1 || userCfg.DownloadRetries > 10 {
		userCfg.DownloadRetries = DefaultConfig().DownloadRetries
	}

	return userCfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get returns the value of a config key as a string.
// Returns empty string and false if the key doesn't exist.
func (c *Config) Get(key string) (string, bool) {
	switch strings.ToLower(key) {
	case "manifest_url":
		return c.ManifestURL, true
	case "insecure_tls":
		return strconv.FormatBool(c.InsecureTLS), true
	case "download_retries":
		return strconv.Itoa(c.DownloadRetries), true
	case "manifest_key_fingerprint":
		return c.ManifestKeyFingerprint, true
	case "manifest_key_url":
		return c.ManifestKeyURL, true
	default:
		return "", false
	}
}

// Set updates a config value from a string.
// Returns an error if the key doesn't exist or the value is invalid.
func (c *Config) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "manifest_url":
		c.ManifestURL = value
		return nil
	case "insecure_tls":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for insecure_tls: must be true or false")
		}
		c.InsecureTLS = b
		return nil
	case "download_retries":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 10 {
			return fmt.Errorf("invalid value for download_retries: must be an integer between 1 and 10")
		}
		c.DownloadRetries = n
		return nil
	case "manifest_key_fingerprint":
		c.ManifestKeyFingerprint = value
		return nil
	case "manifest_key_url":
		c.ManifestKeyURL = value
		return nil
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
}

// AvailableKeys returns a list of all configurable keys with descriptions.
func AvailableKeys() map[string]string {
	return map[string]string{
		"manifest_url":             "Override the add-on manifest URL",
		"insecure_tls":             "Skip TLS certificate verification for downloads (true/false)",
		"download_retries":         "Download attempts before giving up (1-10)",
		"manifest_key_fingerprint": "Pinned PGP fingerprint for manifest signature verification",
		"manifest_key_url":         "URL of the armored PGP public key for the pinned fingerprint",
	}
}
