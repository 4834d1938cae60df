// Package common provides the configuration and logging shared by the
// capgains commands.
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Shortfall policies applied by the commands when a disposal exceeds the open
// lots.
const (
	FallbackFail     = "fail"
	FallbackZeroCost = "zero-cost"
)

// Config holds all configuration for capgains.
type Config struct {
	Currency string        `toml:"currency"` // reporting currency (ISO 4217)
	Period   string        `toml:"period"`   // reporting period: day, week, month, quarter, year
	Strict   bool          `toml:"strict"`   // reject out of order events
	Workers  int           `toml:"workers"`  // assets processed concurrently
	Fallback string        `toml:"fallback"` // shortfall policy: "fail" or "zero-cost"
	Files    FilesConfig   `toml:"files"`
	Logging  LoggingConfig `toml:"logging"`
	Report   ReportConfig  `toml:"report"`
}

// FilesConfig holds the default data files.
type FilesConfig struct {
	Ledger string `toml:"ledger"` // events, JSONL
	Lots   string `toml:"lots"`   // carry-over lots, JSONL
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// ReportConfig holds the report rendering options.
type ReportConfig struct {
	WordWrap int `toml:"word_wrap"` // terminal width used by the terminal renderer
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Currency: "USD",
		Period:   "yearly",
		Strict:   true,
		Workers:  1,
		Fallback: FallbackFail,
		Files: FilesConfig{
			Ledger: "events.jsonl",
			Lots:   "",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Report: ReportConfig{
			WordWrap: 100,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if cur := os.Getenv("CG_CURRENCY"); cur != "" {
		config.Currency = strings.ToUpper(cur)
	}
	if p := os.Getenv("CG_PERIOD"); p != "" {
		config.Period = p
	}
	if s := os.Getenv("CG_STRICT"); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			config.Strict = b
		}
	}
	if w := os.Getenv("CG_WORKERS"); w != "" {
		if n, err := strconv.Atoi(w); err == nil {
			config.Workers = n
		}
	}
	if level := os.Getenv("CG_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if path := os.Getenv("CG_LEDGER"); path != "" {
		config.Files.Ledger = path
	}
	if path := os.Getenv("CG_LOTS"); path != "" {
		config.Files.Lots = path
	}
	if f := os.Getenv("CG_FALLBACK"); f != "" {
		config.Fallback = f
	}
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Fallback {
	case FallbackFail, FallbackZeroCost:
	default:
		return fmt.Errorf("invalid fallback %q, want %q or %q", c.Fallback, FallbackFail, FallbackZeroCost)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return nil
}
