// Package config provides configuration loading and management for Reqmark.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Reqmark configuration
type Config struct {
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Watch    WatchConfig    `yaml:"watch"`
	NATS     NATSConfig     `yaml:"nats"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// AnalyzerConfig configures the external quality analyzer
type AnalyzerConfig struct {
	// Enabled controls whether validation runs the quality gate
	Enabled bool `yaml:"enabled"`
	// Endpoint is the analyzer service URL
	Endpoint string `yaml:"endpoint"`
	// Timeout is the per-request HTTP timeout (e.g. "30s")
	Timeout string `yaml:"timeout"`
	// MaxAttempts is the maximum attempts per analyzer request
	MaxAttempts int `yaml:"max_attempts"`
}

// WatchConfig configures document file watching
type WatchConfig struct {
	// DebounceDelay is how long to wait for more changes before
	// re-validating (e.g. "500ms")
	DebounceDelay string `yaml:"debounce_delay"`
	// FileExtensions lists file extensions to watch
	FileExtensions []string `yaml:"file_extensions"`
	// ExcludeDirs lists directory names to skip
	ExcludeDirs []string `yaml:"exclude_dirs"`
}

// NATSConfig configures the validation service connection
type NATSConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
	// Subject is the request subject the service listens on
	Subject string `yaml:"subject"`
	// Queue is the queue group name for load balancing
	Queue string `yaml:"queue"`
}

// MetricsConfig configures the Prometheus metrics endpoint
type MetricsConfig struct {
	// Addr is the listen address for /metrics (empty disables metrics)
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{
			Enabled:     false,
			Endpoint:    "http://localhost:8095/analyze",
			Timeout:     "30s",
			MaxAttempts: 3,
		},
		Watch: WatchConfig{
			DebounceDelay:  "500ms",
			FileExtensions: []string{".md"},
			ExcludeDirs:    []string{".git", "node_modules", "vendor"},
		},
		NATS: NATSConfig{
			URL:     "nats://localhost:4222",
			Subject: "reqmark.validate",
			Queue:   "reqmark-validators",
		},
		Metrics: MetricsConfig{
			Addr: ":9105",
		},
	}
}

// GetAnalyzerTimeout returns the analyzer timeout as a duration
func (c *AnalyzerConfig) GetAnalyzerTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// GetDebounceDelay returns the debounce delay as a duration
func (c *WatchConfig) GetDebounceDelay() time.Duration {
	d, err := time.ParseDuration(c.DebounceDelay)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Analyzer.Enabled && c.Analyzer.Endpoint == "" {
		return fmt.Errorf("analyzer.endpoint is required when the analyzer is enabled")
	}
	if c.Analyzer.Timeout != "" {
		if _, err := time.ParseDuration(c.Analyzer.Timeout); err != nil {
			return fmt.Errorf("analyzer.timeout is not a valid duration: %w", err)
		}
	}
	if c.Analyzer.MaxAttempts < 1 {
		return fmt.Errorf("analyzer.max_attempts must be at least 1")
	}
	if c.Watch.DebounceDelay != "" {
		if _, err := time.ParseDuration(c.Watch.DebounceDelay); err != nil {
			return fmt.Errorf("watch.debounce_delay is not a valid duration: %w", err)
		}
	}
	if c.NATS.Subject == "" {
		return fmt.Errorf("nats.subject is required")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Analyzer
	if other.Analyzer.Enabled {
		c.Analyzer.Enabled = true
	}
	if other.Analyzer.Endpoint != "" {
		c.Analyzer.Endpoint = other.Analyzer.Endpoint
	}
	if other.Analyzer.Timeout != "" {
		c.Analyzer.Timeout = other.Analyzer.Timeout
	}
	if other.Analyzer.MaxAttempts != 0 {
		c.Analyzer.MaxAttempts = other.Analyzer.MaxAttempts
	}

	// Watch
	if other.Watch.DebounceDelay != "" {
		c.Watch.DebounceDelay = other.Watch.DebounceDelay
	}
	if len(other.Watch.FileExtensions) > 0 {
		c.Watch.FileExtensions = other.Watch.FileExtensions
	}
	if len(other.Watch.ExcludeDirs) > 0 {
		c.Watch.ExcludeDirs = other.Watch.ExcludeDirs
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}
	if other.NATS.Queue != "" {
		c.NATS.Queue = other.NATS.Queue
	}

	// Metrics
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}
}
