// Package config loads lazylists configuration.
//
// Viper reads a YAML file (lazyrun.yml, cmd/lazyrun/config.yml or
// config.yml by default), godotenv merges an optional .env file, and
// LAZYLISTS_* environment variables override both using underscore
// separated paths (e.g. LAZYLISTS_ENGINE_MAX_PARALLEL=8).
//
// # Usage
//
//	cfg, err := config.Load(config.WithConfigFile("lazyrun.yml"))
//
// LoadConfig is the generic loader behind Load and accepts any struct
// with mapstructure tags.
package config
