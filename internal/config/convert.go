package config

import (
	"fmt"
	"os"
	"time"
)

const EnvConvertTimeout = "FOLIO_CONVERT_TIMEOUT"

// ConvertConfig holds document conversion parameters.
type ConvertConfig struct {
	Timeout string `toml:"timeout"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *ConvertConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ConvertConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ConvertConfig) Merge(overlay *ConvertConfig) {
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *ConvertConfig) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "1m"
	}
}

func (c *ConvertConfig) loadEnv() {
	if v := os.Getenv(EnvConvertTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *ConvertConfig) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
