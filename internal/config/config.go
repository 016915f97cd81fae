// Package config provides configuration management for cmdhub applications
// using Viper for flexible configuration loading from files, environment
// variables, and command-line flags.
//
// Configuration comes from a YAML file (.cmdhub.yml by default) with
// environment variable overrides under the CMDHUB_ prefix. It covers
// logging, manifest discovery, and output formatting.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Output    OutputConfig    `yaml:"output"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type DiscoveryConfig struct {
	Paths    []string      `yaml:"paths"`
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
}

type OutputConfig struct {
	Format string `yaml:"format"`
}

// Load builds a Config from whatever viper has already read. Defaults are
// applied for anything unset.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Logging.Level == "" {
		config.Logging.Level = viper.GetString("logging.level")
	}
	if config.Logging.Format == "" {
		config.Logging.Format = viper.GetString("logging.format")
	}

	// Workaround for viper slice handling: Unmarshal can miss slices set
	// through env or flags.
	if len(config.Discovery.Paths) == 0 && viper.IsSet("discovery.paths") {
		config.Discovery.Paths = viper.GetStringSlice("discovery.paths")
	}
	if viper.IsSet("discovery.watch") {
		config.Discovery.Watch = viper.GetBool("discovery.watch")
	}
	if config.Discovery.Debounce == 0 && viper.IsSet("discovery.debounce") {
		config.Discovery.Debounce = viper.GetDuration("discovery.debounce")
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
	if config.Discovery.Debounce == 0 {
		config.Discovery.Debounce = 300 * time.Millisecond
	}
	if config.Output.Format == "" {
		config.Output.Format = "table"
	}
}

// Validate checks configuration values that would otherwise fail deep inside
// the program.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging format %q (want text or json)", c.Logging.Format)
	}

	switch c.Output.Format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("invalid output format %q (want table, json, or yaml)", c.Output.Format)
	}

	if c.Discovery.Debounce < 0 {
		return fmt.Errorf("discovery debounce must not be negative")
	}

	return nil
}
