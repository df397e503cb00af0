package config

import (
	"time"

	"github.com/kbukum/lazylists/validation"
)

// DefaultName is the config name used when searching for files.
const DefaultName = "lazyrun"

// EnvPrefix namespaces environment overrides, e.g. LAZYLISTS_ENGINE_MAX_PARALLEL.
const EnvPrefix = "LAZYLISTS"

// Config is the complete configuration of a lazylists binary.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Engine  EngineConfig  `yaml:"engine" mapstructure:"engine"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// EngineConfig tunes pipeline execution.
type EngineConfig struct {
	// MaxParallel bounds concurrent Parallel thunks; 0 means unbounded.
	MaxParallel int `yaml:"max_parallel" mapstructure:"max_parallel" validate:"gte=0"`
	// DefinitionsDir resolves relative definition paths.
	DefinitionsDir string `yaml:"definitions_dir" mapstructure:"definitions_dir"`
}

// TracingConfig controls the OTLP trace exporter.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// MetricsConfig controls the OTLP metric exporter.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0s"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	c.ServiceConfig.ApplyDefaults()

	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4318"
	}
	if c.Tracing.Enabled && c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = "localhost:4318"
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = 10 * time.Second
	}
}

// Validate checks the service fields and then the tagged sections.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}

// Load reads, defaults and validates a Config.
func Load(opts ...LoaderOption) (*Config, error) {
	cfg := &Config{}
	opts = append([]LoaderOption{WithEnvPrefix(EnvPrefix)}, opts...)
	if err := LoadConfig(DefaultName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
