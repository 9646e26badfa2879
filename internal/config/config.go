// Package config loads the tochist configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the top-level application configuration.
type Config struct {
	API   APIConfig   `toml:"api"`
	Cache CacheConfig `toml:"cache"`
	View  ViewConfig  `toml:"view"`
}

// APIConfig holds settings for the MediaWiki endpoint.
type APIConfig struct {
	BaseURL   string `toml:"base_url"`
	UserAgent string `toml:"user_agent"`
}

// CacheConfig holds settings for the local revision-content cache.
type CacheConfig struct {
	Path     string `toml:"path"`
	TTLHours int    `toml:"ttl_hours"`
}

// ViewConfig holds defaults for the history views.
type ViewConfig struct {
	Sampling string `toml:"sampling"`
	Years    int    `toml:"years"`
}

// DefaultConfig returns a Config populated with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://en.wikipedia.org/w/api.php",
			UserAgent: "tochist/0.1 (TOC history viewer)",
		},
		Cache: CacheConfig{
			Path:     DefaultCachePath(),
			TTLHours: 24 * 30,
		},
		View: ViewConfig{
			Sampling: "yearly",
			Years:    10,
		},
	}
}

// TTL returns the cache TTL as a duration. Non-positive means no expiry.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// DefaultPath returns XDG_CONFIG_HOME/tochist/config.toml.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "tochist", "config.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tochist", "config.toml")
}

// DefaultCachePath returns XDG_CACHE_HOME/tochist/revisions.db.
func DefaultCachePath() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "tochist", "revisions.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "tochist", "revisions.db")
}

// Load reads the config file at path, applying it over the defaults. A
// missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
