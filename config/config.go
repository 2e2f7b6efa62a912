// Package config provides configuration loading and management for semprov.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete semprov configuration
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
	Output    OutputConfig    `yaml:"output"`
	Traversal TraversalConfig `yaml:"traversal"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	// Prefixes maps short names to namespace IRIs for prefixed node names.
	Prefixes map[string]string `yaml:"prefixes,omitempty"`
}

// StoreConfig selects and configures the quad store
type StoreConfig struct {
	// Backend is one of memory, badger, sqlite or nats
	Backend string `yaml:"backend"`
	// Path is the badger directory or sqlite file
	Path string `yaml:"path"`
	// SyncWrites fsyncs badger writes (nil = true)
	SyncWrites *bool `yaml:"sync_writes,omitempty"`
	// GCInterval is the badger value log GC interval (0 disables GC)
	GCInterval time.Duration `yaml:"gc_interval"`
	// NATS configures the nats backend
	NATS NATSConfig `yaml:"nats"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
	// Bucket is the JetStream KV bucket holding the quads
	Bucket string `yaml:"bucket"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level"`
	// Format is text or json
	Format string `yaml:"format"`
}

// OutputConfig configures result rendering
type OutputConfig struct {
	// Format is table, markdown, json or ntriples
	Format string `yaml:"format"`
}

// TraversalConfig configures provenance walks
type TraversalConfig struct {
	// MaxDepth limits walk distance (0 = unlimited)
	MaxDepth int `yaml:"max_depth"`
}

// MetricsConfig configures metrics export
type MetricsConfig struct {
	// Textfile is written in Prometheus text format after each command (empty = off)
	Textfile string `yaml:"textfile"`
}

var (
	validBackends   = []string{"memory", "badger", "sqlite", "nats"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
	validOutputs    = []string{"table", "markdown", "json", "ntriples"}
)

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:    "badger",
			Path:       ".semprov/data",
			SyncWrites: boolPtr(true),
			GCInterval: 5 * time.Minute,
			NATS: NATSConfig{
				URL:    "nats://127.0.0.1:4222",
				Bucket: "SEMPROV_QUADS",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			Format: "table",
		},
		Traversal: TraversalConfig{
			MaxDepth: 0, // Unlimited
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if !oneOf(c.Store.Backend, validBackends) {
		return fmt.Errorf("store.backend must be one of %s, got %q", strings.Join(validBackends, ", "), c.Store.Backend)
	}
	if (c.Store.Backend == "badger" || c.Store.Backend == "sqlite") && c.Store.Path == "" {
		return fmt.Errorf("store.path is required for the %s backend", c.Store.Backend)
	}
	if c.Store.Backend == "nats" && c.Store.NATS.URL == "" {
		return fmt.Errorf("store.nats.url is required for the nats backend")
	}
	if c.Store.GCInterval < 0 {
		return fmt.Errorf("store.gc_interval must not be negative")
	}
	if !oneOf(c.Log.Level, validLogLevels) {
		return fmt.Errorf("log.level must be one of %s", strings.Join(validLogLevels, ", "))
	}
	if !oneOf(c.Log.Format, validLogFormats) {
		return fmt.Errorf("log.format must be one of %s", strings.Join(validLogFormats, ", "))
	}
	if !oneOf(c.Output.Format, validOutputs) {
		return fmt.Errorf("output.format must be one of %s", strings.Join(validOutputs, ", "))
	}
	if c.Traversal.MaxDepth < 0 {
		return fmt.Errorf("traversal.max_depth must not be negative")
	}
	for prefix, ns := range c.Prefixes {
		if prefix == "" || ns == "" {
			return fmt.Errorf("prefixes entries need a name and a namespace")
		}
	}
	return nil
}

// Sync reports whether badger writes are fsynced.
func (s StoreConfig) Sync() bool {
	return s.SyncWrites == nil || *s.SyncWrites
}

func boolPtr(b bool) *bool {
	return &b
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
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

// loadLayer decodes path without defaults, so Merge only sees the keys the
// file sets.
func loadLayer(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
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

	// Store
	if other.Store.Backend != "" {
		c.Store.Backend = other.Store.Backend
	}
	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}
	if other.Store.GCInterval != 0 {
		c.Store.GCInterval = other.Store.GCInterval
	}
	if other.Store.SyncWrites != nil {
		c.Store.SyncWrites = boolPtr(*other.Store.SyncWrites)
	}
	if other.Store.NATS.URL != "" {
		c.Store.NATS.URL = other.Store.NATS.URL
	}
	if other.Store.NATS.Bucket != "" {
		c.Store.NATS.Bucket = other.Store.NATS.Bucket
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}

	// Output
	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}

	// Traversal
	if other.Traversal.MaxDepth != 0 {
		c.Traversal.MaxDepth = other.Traversal.MaxDepth
	}

	// Metrics
	if other.Metrics.Textfile != "" {
		c.Metrics.Textfile = other.Metrics.Textfile
	}

	// Prefixes
	for prefix, ns := range other.Prefixes {
		if c.Prefixes == nil {
			c.Prefixes = make(map[string]string)
		}
		c.Prefixes[prefix] = ns
	}
}
