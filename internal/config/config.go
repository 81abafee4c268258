// Package config loads eeprog settings from a YAML or TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the resolved CLI configuration. Zero values from a file never
// override defaults; command-line flags are applied on top by the caller.
type Config struct {
	Port        string
	BaudRate    int
	Timeout     time.Duration
	Driver      string
	SettleDelay time.Duration

	LogLevel string
	NoColor  bool

	MetricsTextfile string

	CommandDelay time.Duration
	MissingLimit int
	Verify       bool
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		BaudRate: 115200,
		Timeout:  time.Second,
		Driver:   "bugst",
		LogLevel: "info",
		Verify:   true,
	}
}

// fileConfig mirrors the on-disk layout. Pointers tell "absent" from zero.
type fileConfig struct {
	Serial struct {
		Port        *string `yaml:"port" toml:"port"`
		Baud        *int    `yaml:"baud" toml:"baud"`
		Timeout     *string `yaml:"timeout" toml:"timeout"`
		Driver      *string `yaml:"driver" toml:"driver"`
		SettleDelay *string `yaml:"settle_delay" toml:"settle_delay"`
	} `yaml:"serial" toml:"serial"`

	Log struct {
		Level   *string `yaml:"level" toml:"level"`
		NoColor *bool   `yaml:"no_color" toml:"no_color"`
	} `yaml:"log" toml:"log"`

	Metrics struct {
		Textfile *string `yaml:"textfile" toml:"textfile"`
	} `yaml:"metrics" toml:"metrics"`

	Programmer struct {
		CommandDelay *string `yaml:"command_delay" toml:"command_delay"`
		MissingLimit *int    `yaml:"missing_limit" toml:"missing_limit"`
		Verify       *bool   `yaml:"verify" toml:"verify"`
	} `yaml:"programmer" toml:"programmer"`
}

// Load reads path and applies it over Default. The format is chosen by
// extension: .yaml/.yml or .toml. Unknown keys are an error.
func Load(path string) (Config, error) {
	var raw fileConfig

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	case ".toml":
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
		}
	default:
		return Config{}, fmt.Errorf("load config %s: unsupported extension %q", path, filepath.Ext(path))
	}

	cfg := Default()
	if err := raw.apply(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func (raw *fileConfig) apply(cfg *Config) error {
	if raw.Serial.Port != nil {
		cfg.Port = strings.TrimSpace(*raw.Serial.Port)
	}
	if raw.Serial.Baud != nil {
		cfg.BaudRate = *raw.Serial.Baud
	}
	if raw.Serial.Driver != nil {
		cfg.Driver = strings.TrimSpace(*raw.Serial.Driver)
	}
	if err := applyDuration("serial.timeout", raw.Serial.Timeout, &cfg.Timeout); err != nil {
		return err
	}
	if err := applyDuration("serial.settle_delay", raw.Serial.SettleDelay, &cfg.SettleDelay); err != nil {
		return err
	}

	if raw.Log.Level != nil {
		cfg.LogLevel = strings.TrimSpace(*raw.Log.Level)
	}
	if raw.Log.NoColor != nil {
		cfg.NoColor = *raw.Log.NoColor
	}

	if raw.Metrics.Textfile != nil {
		cfg.MetricsTextfile = strings.TrimSpace(*raw.Metrics.Textfile)
	}

	if err := applyDuration("programmer.command_delay", raw.Programmer.CommandDelay, &cfg.CommandDelay); err != nil {
		return err
	}
	if raw.Programmer.MissingLimit != nil {
		cfg.MissingLimit = *raw.Programmer.MissingLimit
	}
	if raw.Programmer.Verify != nil {
		cfg.Verify = *raw.Programmer.Verify
	}
	return nil
}

func applyDuration(key string, raw *string, out *time.Duration) error {
	if raw == nil {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*raw))
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*out = d
	return nil
}
