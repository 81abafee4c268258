package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("serial.port is required")
	}
	if cfg.BaudRate <= 0 {
		return fmt.Errorf("serial.baud must be positive, got %d", cfg.BaudRate)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("serial.timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.SettleDelay < 0 {
		return fmt.Errorf("serial.settle_delay must not be negative, got %s", cfg.SettleDelay)
	}
	switch strings.ToLower(cfg.Driver) {
	case "", "bugst", "goburrow":
	default:
		return fmt.Errorf("serial.driver %q is not one of bugst, goburrow", cfg.Driver)
	}

	if cfg.CommandDelay < 0 {
		return fmt.Errorf("programmer.command_delay must not be negative, got %s", cfg.CommandDelay)
	}
	if cfg.MissingLimit < 0 {
		return fmt.Errorf("programmer.missing_limit must not be negative, got %d", cfg.MissingLimit)
	}
	return nil
}
