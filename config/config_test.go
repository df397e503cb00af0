package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "lazyrun"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug log level, got %q", cfg.Logging.Level)
		}
		if cfg.Logging.ServiceName != "lazyrun" {
			t.Errorf("expected logging service name, got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "lazyrun", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected info log level, got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid development", ServiceConfig{Name: "svc", Environment: "development"}, ""},
		{"valid production", ServiceConfig{Name: "svc", Environment: "production"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "name: is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, "environment: must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{Tracing: TracingConfig{Enabled: true}}
	cfg.ApplyDefaults()

	if cfg.Name != DefaultName {
		t.Errorf("expected default name %q, got %q", DefaultName, cfg.Name)
	}
	if cfg.Tracing.Endpoint != "localhost:4318" || cfg.Metrics.Endpoint != "localhost:4318" {
		t.Errorf("unexpected endpoints: %q %q", cfg.Tracing.Endpoint, cfg.Metrics.Endpoint)
	}
	if cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("expected sample rate 1.0 when tracing is enabled, got %v", cfg.Tracing.SampleRate)
	}
	if cfg.Metrics.Interval != 10*time.Second {
		t.Errorf("expected 10s interval, got %v", cfg.Metrics.Interval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative max parallel", func(c *Config) { c.Engine.MaxParallel = -1 }, "engine.max_parallel"},
		{"sample rate above one", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "tracing.sample_rate"},
		{"bad endpoint", func(c *Config) { c.Metrics.Endpoint = "not a host" }, "metrics.endpoint: must be a host:port pair"},
		{"missing name", func(c *Config) { c.Name = "" }, "name: is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{}
			cfg.ApplyDefaults()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "lazyrun.yml")

	yamlContent := `
name: test-runner
environment: staging
engine:
  max_parallel: 4
  definitions_dir: ./defs
tracing:
  enabled: true
  sample_rate: 0.25
metrics:
  interval: 30s
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(WithConfigFile(configPath), WithEnvFile(filepath.Join(dir, "missing.env")))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Name != "test-runner" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config: %+v", cfg.ServiceConfig)
	}
	want := EngineConfig{MaxParallel: 4, DefinitionsDir: "./defs"}
	if diff := cmp.Diff(want, cfg.Engine); diff != "" {
		t.Errorf("engine mismatch (-want +got):\n%s", diff)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.SampleRate != 0.25 {
		t.Errorf("unexpected tracing config: %+v", cfg.Tracing)
	}
	if cfg.Metrics.Interval != 30*time.Second {
		t.Errorf("expected 30s interval, got %v", cfg.Metrics.Interval)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "lazyrun.yml")
	if err := os.WriteFile(configPath, []byte("engine:\n  max_parallel: 2\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("LAZYLISTS_ENGINE_MAX_PARALLEL", "8")
	t.Setenv("ENGINE_MAX_PARALLEL", "99")

	cfg, err := Load(WithConfigFile(configPath), WithEnvFile(filepath.Join(dir, "missing.env")))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine.MaxParallel != 8 {
		t.Errorf("expected env override 8, got %d", cfg.Engine.MaxParallel)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	var cfg Config
	err := LoadConfig("lazyrun", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func TestLoadConfigNoFiles(t *testing.T) {
	var cfg Config
	err := LoadConfig("lazyrun", &cfg, WithFileSystem(&mockFS{files: map[string]bool{}}))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed without files, got %v", err)
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/lazyrun/config.yml": true,
		"./config.yml":             true,
		"./.env":                   true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("lazyrun", LoaderConfig{})
	want := ResolvedFiles{ConfigFile: "./cmd/lazyrun/config.yml", EnvFile: "./.env"}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("resolved files mismatch (-want +got):\n%s", diff)
	}
}

func TestResolverExplicitPaths(t *testing.T) {
	resolver := &Resolver{FileSystem: &mockFS{}}
	files := resolver.ResolveFiles("lazyrun", LoaderConfig{ConfigFile: "a.yml", EnvFile: "b.env"})
	if files.ConfigFile != "a.yml" || files.EnvFile != "b.env" {
		t.Errorf("explicit paths not kept: %+v", files)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestGenerateEnvKeyVariants(t *testing.T) {
	got := generateEnvKeyVariants("ENGINE_MAX_PARALLEL")
	want := []string{"engine_max_parallel", "engine.max.parallel", "engine.max_parallel"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("variants mismatch (-want +got):\n%s", diff)
	}

	if got := generateEnvKeyVariants("NAME"); len(got) != 1 || got[0] != "name" {
		t.Errorf("single part key: %v", got)
	}
}

func TestAutoBindEnvVarsPrefix(t *testing.T) {
	v := viper.New()
	autoBindEnvVars(v, "LAZYLISTS", []string{
		"LAZYLISTS_TRACING_ENABLED=true",
		"LAZYLISTS_=ignored",
		"PATH=/usr/bin",
		"malformed",
	})
	if !v.GetBool("tracing.enabled") {
		t.Error("expected tracing.enabled bound from prefixed variable")
	}
	if v.IsSet("path") {
		t.Error("unprefixed variable must not be bound")
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	WithFileSystem(&mockFS{})(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	WithEnvPrefix("lazylists_")(&lc)

	if lc.FileSystem == nil || lc.ConfigFile != "/path/to/config.yml" || lc.EnvFile != "/path/to/.env" {
		t.Errorf("options not applied: %+v", lc)
	}
	if lc.EnvPrefix != "LAZYLISTS" {
		t.Errorf("expected normalized prefix, got %q", lc.EnvPrefix)
	}
}
