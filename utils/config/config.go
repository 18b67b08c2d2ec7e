// Package config loads runtime settings from BITSYNTAX_* environment variables.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Prefix is the environment variable prefix.
const Prefix = "bitsyntax"

// Config holds the settings shared by the example tools.
type Config struct {
	LogLevel       string `split_words:"true" required:"true" default:"info"`
	OperatingPoint int    `split_words:"true" required:"true" default:"0"`
	KeepGoing      bool   `split_words:"true" default:"false"`
}

// Load reads the environment and parses the log level.
func Load() (*Config, logrus.Level, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return nil, 0, fmt.Errorf("config: %w", err)
	}
	lvl, err := c.Level()
	if err != nil {
		return nil, 0, err
	}
	return &c, lvl, nil
}

// Level parses LogLevel.
func (c *Config) Level() (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("config: log level: %w", err)
	}
	return lvl, nil
}
