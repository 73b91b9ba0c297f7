package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvOCRLanguage = "FOLIO_OCR_LANGUAGE"
	EnvOCRDPI      = "FOLIO_OCR_DPI"
)

// OCRConfig holds text recognition defaults.
type OCRConfig struct {
	Language string `toml:"language"`
	DPI      int    `toml:"dpi"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *OCRConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *OCRConfig) Merge(overlay *OCRConfig) {
	if overlay.Language != "" {
		c.Language = overlay.Language
	}
	if overlay.DPI != 0 {
		c.DPI = overlay.DPI
	}
}

func (c *OCRConfig) loadDefaults() {
	if c.Language == "" {
		c.Language = "eng"
	}
	if c.DPI == 0 {
		c.DPI = 300
	}
}

func (c *OCRConfig) loadEnv() {
	if v := os.Getenv(EnvOCRLanguage); v != "" {
		c.Language = v
	}
	if v := os.Getenv(EnvOCRDPI); v != "" {
		if dpi, err := strconv.Atoi(v); err == nil {
			c.DPI = dpi
		}
	}
}

func (c *OCRConfig) validate() error {
	if c.DPI < 72 || c.DPI > 1200 {
		return fmt.Errorf("invalid dpi: %d", c.DPI)
	}
	return nil
}
