// Package logging provides the zerolog setup shared by the CLI and the
// worker processes, plus helpers for carrying a logger through a
// context.Context.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls how the root logger is built.
type Config struct {
	// Level is a zerolog level name ("debug", "info", "warn", "error").
	// Unknown values fall back to info.
	Level string

	// Format selects the output encoding: "console" or "json".
	Format string

	// Out is the destination writer. Defaults to os.Stderr when nil.
	Out io.Writer
}

// New builds the root logger from cfg.
func New(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// ComponentLogger returns a child logger tagged with a component name.
// Component names follow the package that owns the log lines ("cli",
// "engine", "procpool", ...).
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// WithContext embeds logger in ctx so callees can recover it with
// FromContext.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// FromContext extracts the logger embedded in ctx. When ctx carries no
// logger a disabled logger is returned, so library code can log
// unconditionally without nil checks.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
