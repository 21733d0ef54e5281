// Package config defines service configuration structures and loading hooks.
//
// Values are layered: defaults from New, then an optional YAML file named by
// RECORDBOOK_CONFIG, then RECORDBOOK_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/okian/recordbook/pkg/logger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DefaultTop is the row count returned when a query omits top.
	DefaultTop int `koanf:"default_top"`

	// MaxTop caps the top a query can ask for.
	MaxTop int `koanf:"max_top"`

	// RequestTimeoutMS bounds a single records query. Zero disables the bound.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// RatioPrecision is the number of decimals kept by percentage metrics.
	RatioPrecision int `koanf:"ratio_precision"`

	// DatasetPath points at a JSON dataset served from memory.
	DatasetPath string `koanf:"dataset_path"`

	// Fixtures serves a generated dataset when no other source is configured.
	Fixtures bool `koanf:"fixtures"`

	// DatabaseURL selects the Postgres collaborator; it wins over DatasetPath.
	DatabaseURL string `koanf:"database_url"`

	// DatabaseMaxConns caps the Postgres pool. Zero keeps the driver default.
	DatabaseMaxConns int `koanf:"database_max_conns"`
}

const maxRatioPrecision = 10

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        logger.FormatText,
		Addr:             ":9080",
		DefaultTop:       100,
		MaxTop:           500,
		RequestTimeoutMS: 5_000,
		RatioPrecision:   3,
		DatabaseMaxConns: 10,
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != logger.FormatText && c.LogFormat != logger.FormatJSON:
		return fmt.Errorf("%w: log_format must be %q or %q", ErrInvalidConfig, logger.FormatText, logger.FormatJSON)
	case c.DefaultTop < 1:
		return fmt.Errorf("%w: default_top must be positive", ErrInvalidConfig)
	case c.MaxTop < c.DefaultTop:
		return fmt.Errorf("%w: max_top must be at least default_top", ErrInvalidConfig)
	case c.RequestTimeoutMS < 0:
		return fmt.Errorf("%w: request_timeout_ms must not be negative", ErrInvalidConfig)
	case c.RatioPrecision < 0 || c.RatioPrecision > maxRatioPrecision:
		return fmt.Errorf("%w: ratio_precision must be within [0, %d]", ErrInvalidConfig, maxRatioPrecision)
	case c.DatabaseMaxConns < 0:
		return fmt.Errorf("%w: database_max_conns must not be negative", ErrInvalidConfig)
	}
	return nil
}
