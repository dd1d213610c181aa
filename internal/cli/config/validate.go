package config

import (
	"fmt"
	"os"
)

// validOutputFormats are the accepted values for the output key.
var validOutputFormats = map[string]bool{
	"":         true,
	"auto":     true,
	"text":     true,
	"markdown": true,
	"md":       true,
	"json":     true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.XPPautPath == "" {
		return fmt.Errorf("xppaut is required")
	}
	if !validOutputFormats[c.OutputFormat] {
		return fmt.Errorf("invalid output format %q (want auto, text, markdown, or json)", c.OutputFormat)
	}
	return nil
}

// ValidateWorkDir checks if the working directory exists.
func (c *Config) ValidateWorkDir() error {
	if _, err := os.Stat(c.WorkDir); os.IsNotExist(err) {
		return fmt.Errorf("working directory does not exist: %s\nHint: Create the directory or use --workdir to specify a different path", c.WorkDir)
	}
	return nil
}
