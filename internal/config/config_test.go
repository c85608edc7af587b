package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pzverkov/quantum-netsim/pkg/metrics"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Metrics.Addr != ":9090" {
		t.Errorf("Metrics.Addr = %s, want :9090", cfg.Metrics.Addr)
	}
	if cfg.Metrics.Namespace != "quantum_netsim" {
		t.Errorf("Metrics.Namespace = %s", cfg.Metrics.Namespace)
	}
	if cfg.Metrics.ShutdownTimeout.Duration() != 5*time.Second {
		t.Errorf("ShutdownTimeout = %s, want 5s", cfg.Metrics.ShutdownTimeout.Duration())
	}
	if cfg.Tracing.Backend != "none" {
		t.Errorf("Tracing.Backend = %s, want none", cfg.Tracing.Backend)
	}
	if cfg.Simulation.Seed != nil {
		t.Error("default seed should be unset")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	seed := uint64(42)
	cfg := DefaultConfig()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"
	cfg.Metrics.Labels = map[string]string{"lab": "a"}
	cfg.Metrics.ShutdownTimeout = Duration(2 * time.Second)
	cfg.Simulation.Seed = &seed
	cfg.Bench.Rounds = 10

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, path, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %s, want %s", path, configPath)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
	if loaded.LogLevel() != metrics.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", loaded.LogLevel())
	}
	if loaded.LogFormat() != metrics.FormatJSON {
		t.Errorf("LogFormat = %v, want json", loaded.LogFormat())
	}
}

func TestLoadPartialAppliesDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	doc := "tracing:\n  backend: simple\nmetrics:\n  shutdown_timeout: 250ms\n"
	if err := os.WriteFile(configPath, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if cfg.Tracing.Backend != "simple" {
		t.Errorf("Tracing.Backend = %s, want simple", cfg.Tracing.Backend)
	}
	if cfg.Metrics.ShutdownTimeout.Duration() != 250*time.Millisecond {
		t.Errorf("ShutdownTimeout = %s, want 250ms", cfg.Metrics.ShutdownTimeout.Duration())
	}
	if cfg.Log.Format != "text" || cfg.Bench.Rounds != 1000 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"bad yaml", "log: [", "parse config"},
		{"bad duration", "metrics:\n  shutdown_timeout: soon\n", "parse config"},
		{"bad format", "log:\n  format: xml\n", "log.format"},
		{"bad backend", "tracing:\n  backend: zipkin\n", "tracing.backend"},
		{"oversized message", "bench:\n  message_size: 70000\n", "message_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tt.doc), 0o600); err != nil {
				t.Fatal(err)
			}
			_, _, err := LoadFromPath(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadFromPath() error = %v, want mention of %q", err, tt.want)
			}
		})
	}

	if _, _, err := LoadFromPath(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadFromPath() on a missing file should fail")
	}
}

func TestFindConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HOME", filepath.Join(tmpDir, "home"))
	t.Chdir(tmpDir)

	if found := FindConfigPath(); found != "" {
		t.Errorf("FindConfigPath() = %q, want none", found)
	}

	if err := DefaultConfig().Save(filepath.Join(tmpDir, ConfigFileName)); err != nil {
		t.Fatal(err)
	}
	if found := FindConfigPath(); filepath.Base(found) != ConfigFileName {
		t.Errorf("FindConfigPath() = %q, want the working directory file", found)
	}

	explicit := filepath.Join(tmpDir, "explicit.yaml")
	if err := DefaultConfig().Save(explicit); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigPath, explicit)
	if found := FindConfigPath(); found != explicit {
		t.Errorf("FindConfigPath() = %q, want %q", found, explicit)
	}

	t.Setenv(EnvConfigPath, filepath.Join(tmpDir, "nonexistent.yaml"))
	if found := FindConfigPath(); found == "" {
		t.Error("FindConfigPath() should fall back when the env path does not exist")
	}
}

func TestLoadWithoutFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HOME", filepath.Join(tmpDir, "home"))
	t.Chdir(tmpDir)

	cfg, path, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("Load() without a file should return defaults (-want +got):\n%s", diff)
	}
}
