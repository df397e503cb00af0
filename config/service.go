package config

import (
	"github.com/kbukum/lazylists/logger"
	"github.com/kbukum/lazylists/validation"
)

// Environments accepted in ServiceConfig.Environment.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig contains the identity and logging fields shared by every
// binary. Config embeds it squashed, so its keys live at the top level.
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults applies default values to the base configuration.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	// Propagate the name into logging so Init() uses the right tag.
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the base configuration fields.
func (c *ServiceConfig) Validate() error {
	v := validation.New()
	v.Required("name", c.Name)
	v.OneOf("environment", c.Environment, Environments)
	if err := c.Logging.Validate(); err != nil {
		v.AddError("logging", err.Error())
	}
	return v.Err()
}
