// Package config loads the optional qnetsim configuration file.
//
// Command-line flags override values from the file. Config file locations
// (priority order):
//  1. $QNETSIM_CONFIG
//  2. ./qnetsim.yaml
//  3. $XDG_CONFIG_HOME/qnetsim/config.yaml
//  4. ~/.config/qnetsim/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pzverkov/quantum-netsim/internal/constants"
	"github.com/pzverkov/quantum-netsim/pkg/metrics"
)

// Config is the root configuration structure
type Config struct {
	Version    int              `yaml:"version"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Simulation SimulationConfig `yaml:"simulation"`
	Bench      BenchConfig      `yaml:"bench"`
}

// LogConfig selects the logger level and output format
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// MetricsConfig configures the observability server
type MetricsConfig struct {
	Addr            string            `yaml:"addr"`
	Namespace       string            `yaml:"namespace"`
	Labels          map[string]string `yaml:"labels,omitempty"`
	ShutdownTimeout Duration          `yaml:"shutdown_timeout"`
}

// TracingConfig selects the tracer backend
type TracingConfig struct {
	Backend     string `yaml:"backend"` // none, simple, otel
	ServiceName string `yaml:"service_name"`
}

// SimulationConfig holds defaults for scenario runs
type SimulationConfig struct {
	Seed     *uint64 `yaml:"seed,omitempty"` // nil = CSPRNG-seeded
	Scenario string  `yaml:"scenario,omitempty"`
}

// BenchConfig sizes the bench command
type BenchConfig struct {
	Rounds      int `yaml:"rounds"`
	MessageSize int `yaml:"message_size"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load finds and loads the config file, or returns defaults if none found.
// The returned path is empty when defaults are used.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = constants.MetricsNamespace
	}
	if c.Metrics.ShutdownTimeout == 0 {
		c.Metrics.ShutdownTimeout = Duration(5 * time.Second)
	}
	if c.Tracing.Backend == "" {
		c.Tracing.Backend = "none"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "quantum-netsim"
	}
	if c.Bench.Rounds == 0 {
		c.Bench.Rounds = 1000
	}
	if c.Bench.MessageSize == 0 {
		c.Bench.MessageSize = 256
	}
}

// Validate rejects values the commands cannot act on
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format %q: want text or json", c.Log.Format)
	}
	switch c.Tracing.Backend {
	case "none", "simple", "otel":
	default:
		return fmt.Errorf("config: tracing.backend %q: want none, simple or otel", c.Tracing.Backend)
	}
	if c.Bench.Rounds < 0 {
		return fmt.Errorf("config: bench.rounds must not be negative")
	}
	if c.Bench.MessageSize < 0 || c.Bench.MessageSize > constants.MaxMessageSize {
		return fmt.Errorf("config: bench.message_size must be in [0, %d]", constants.MaxMessageSize)
	}
	return nil
}

// LogLevel returns the configured level
func (c *Config) LogLevel() metrics.Level {
	return metrics.ParseLevel(c.Log.Level)
}

// LogFormat returns the configured output format
func (c *Config) LogFormat() metrics.Format {
	if c.Log.Format == "json" {
		return metrics.FormatJSON
	}
	return metrics.FormatText
}
