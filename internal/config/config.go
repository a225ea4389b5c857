package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all refocusd configuration.
type Config struct {
	// Paths
	ProfilePath  string `yaml:"profile_path"`
	DatabasePath string `yaml:"database_path"`

	// Engine loop settings
	Engine EngineConfig `yaml:"engine"`

	// Alignment classifier settings
	Align AlignConfig `yaml:"align"`

	// Notification delivery
	Notify NotifyConfig `yaml:"notify"`
}

// EngineConfig configures the observation loop.
type EngineConfig struct {
	PollInterval  string `yaml:"poll_interval"`  // how often the source is sampled
	Lookback      string `yaml:"lookback"`       // detection window fed to the detectors
	RetentionDays int    `yaml:"retention_days"` // ledger and span retention
}

// AlignConfig configures the alignment assessment cache.
type AlignConfig struct {
	CacheTTL  string `yaml:"cache_ttl"`
	CacheSize int    `yaml:"cache_size"`
}

// NotifyConfig configures how interventions reach the user.
type NotifyConfig struct {
	Socket          string `yaml:"socket"` // unix socket of the desktop agent; empty = terminal
	ResponseTimeout string `yaml:"response_timeout"`
}

// DefaultConfig returns the default configuration rooted under ~/.refocusd.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	root := filepath.Join(home, ".refocusd")

	return &Config{
		ProfilePath:  filepath.Join(root, "profile.json"),
		DatabasePath: filepath.Join(root, "refocusd.db"),
		Engine: EngineConfig{
			PollInterval:  "5s",
			Lookback:      "2h",
			RetentionDays: 90,
		},
		Align: AlignConfig{
			CacheTTL:  "5m",
			CacheSize: 256,
		},
		Notify: NotifyConfig{
			Socket:          "",
			ResponseTimeout: "30s",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("REFOCUSD_PROFILE"); p != "" {
		c.ProfilePath = p
	}
	if p := os.Getenv("REFOCUSD_DB"); p != "" {
		c.DatabasePath = p
	}
	if s := os.Getenv("REFOCUSD_SOCKET"); s != "" {
		c.Notify.Socket = s
	}
	if d := os.Getenv("REFOCUSD_POLL"); d != "" {
		c.Engine.PollInterval = d
	}
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return parseDuration(c.Engine.PollInterval, 5*time.Second)
}

// Lookback returns the detection window as a duration.
func (c *Config) Lookback() time.Duration {
	return parseDuration(c.Engine.Lookback, 2*time.Hour)
}

// CacheTTL returns the alignment cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return parseDuration(c.Align.CacheTTL, 5*time.Minute)
}

// ResponseTimeout returns how long a prompt waits before counting as ignored.
func (c *Config) ResponseTimeout() time.Duration {
	return parseDuration(c.Notify.ResponseTimeout, 30*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
