// Package config handles sync agent configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "15s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("config: duration must be a string like \"15s\"")
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the top-level agent configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Orders  OrdersConfig  `yaml:"orders"`
	Metrics MetricsConfig `yaml:"metrics"`
	Inspect InspectConfig `yaml:"inspect"`
	Offline OfflineConfig `yaml:"offline"`
	// LogLevel is one of debug, info, warn, error. The LOG_LEVEL
	// environment variable takes precedence.
	LogLevel string `yaml:"log_level"`
}

// BackendConfig points at the OrderNow API.
type BackendConfig struct {
	// Origin is the scheme+host of the backend; "/api" is appended.
	Origin  string   `yaml:"origin"`
	Timeout Duration `yaml:"timeout"`
	// OwnerID scopes owner-specific listings such as the menu.
	OwnerID string `yaml:"owner_id"`
}

// OrdersConfig tunes the live order watch.
type OrdersConfig struct {
	// PollInterval overrides the 15s default for the New tab.
	PollInterval Duration `yaml:"poll_interval"`
}

// MetricsConfig controls the SQLite metrics sink. An empty path disables it.
type MetricsConfig struct {
	Path          string   `yaml:"path"`
	BufferSize    int      `yaml:"buffer_size"`
	FlushInterval Duration `yaml:"flush_interval"`
}

// InspectConfig controls the debug HTTP surface. An empty addr disables it.
type InspectConfig struct {
	Addr string `yaml:"addr"`
}

// OfflineConfig controls the substitution store.
type OfflineConfig struct {
	// Disabled turns offline substitution off entirely; transport
	// failures then always surface to the caller.
	Disabled bool `yaml:"disabled"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if cfg.Backend.Origin == "" {
		return nil, fmt.Errorf("config: backend.origin is required")
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Backend.Origin = "http://localhost:3000"
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = Duration(30 * time.Second)
	}
	if c.Orders.PollInterval <= 0 {
		c.Orders.PollInterval = Duration(15 * time.Second)
	}
	if c.Metrics.BufferSize <= 0 {
		c.Metrics.BufferSize = 100
	}
	if c.Metrics.FlushInterval <= 0 {
		c.Metrics.FlushInterval = Duration(5 * time.Second)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
