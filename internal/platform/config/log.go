package config

import (
	"fmt"
	"slices"
)

type LogConfig struct {
	Level string `koanf:"level"`
}

var logLevels = []string{"", "debug", "info", "warn", "error"}

func (c *LogConfig) Validate() error {
	if !slices.Contains(logLevels, c.Level) {
		return fmt.Errorf("unsupported log level: %q", c.Level)
	}
	return nil
}
