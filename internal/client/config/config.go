// Package config handles configuration for the client: defaults, JSON
// overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the Pennywise CLI.
//
// Fields:
//   - ServerEndpointURL: base URL of the record server API.
//   - DatabasePath: path of the local SQLite file.
//   - OnlineCheckInterval: how often the client probes server reachability.
type Config struct {
	ServerEndpointURL   string
	DatabasePath        string
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointURL = "http://127.0.0.1:8080"
	c.DatabasePath = "pennywise.db"
	c.OnlineCheckInterval = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
