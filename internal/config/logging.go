package config

import "fmt"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level" env:"LEVEL"`           // debug, info, warn, error
	Format     string          `yaml:"format" env:"FORMAT"`         // json, console
	File       string          `yaml:"file" env:"FILE"`             // empty means stderr
	DebugMode  bool            `yaml:"debug_mode" env:"DEBUG_MODE"` // master toggle for category loggers
	Categories map[string]bool `yaml:"categories,omitempty"`        // per-category toggles
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Returns false if debug_mode is false.
// Returns true if debug_mode is true and category is enabled (or not specified).
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}

// Validate checks level and format.
func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Level)
	}
	switch c.Format {
	case "", "json", "console", "text":
	default:
		return fmt.Errorf("invalid log format: %s", c.Format)
	}
	return nil
}
