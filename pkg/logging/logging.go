// Package logging builds the service's slog.Logger from configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// EnvLevel overrides the configured log level.
	EnvLevel = "LOGGING_LEVEL"

	// EnvFormat overrides the configured output format.
	EnvFormat = "LOGGING_FORMAT"
)

// Level is a slog level name: debug, info, warn or error.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format selects the handler that renders records.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config holds the [logging] section of the service configuration.
type Config struct {
	Level  Level  `toml:"level"`
	Format Format `toml:"format"`
}

// New returns a logger writing to w at cfg's level and format. Every record
// carries a "service" attribute naming the emitting service.
func New(cfg *Config, w io.Writer, service string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level.ToSlogLevel()}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("service", service)
}

// Finalize fills unset fields with info/text, applies LOGGING_LEVEL and
// LOGGING_FORMAT, and validates the result.
func (c *Config) Finalize() error {
	if c.Level == "" {
		c.Level = LevelInfo
	}
	if c.Format == "" {
		c.Format = FormatText
	}

	if v := os.Getenv(EnvLevel); v != "" {
		c.Level = Level(strings.ToLower(v))
	}
	if v := os.Getenv(EnvFormat); v != "" {
		c.Format = Format(strings.ToLower(v))
	}

	if err := c.Level.Validate(); err != nil {
		return err
	}
	return c.Format.Validate()
}

// Merge applies non-zero values from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
}

// Validate reports whether l names one of the four slog levels.
func (l Level) Validate() error {
	switch l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return nil
	}
	return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", l)
}

// ToSlogLevel parses l with slog's own level names; anything unparsable
// logs at info.
func (l Level) ToSlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Validate reports whether f is text or json.
func (f Format) Validate() error {
	if f == FormatText || f == FormatJSON {
		return nil
	}
	return fmt.Errorf("invalid log format: %q (must be text or json)", f)
}
