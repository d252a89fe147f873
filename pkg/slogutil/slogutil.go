// Package slogutil configures the process-wide slog logger.
package slogutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds configuration for slog setup.
type Config struct {
	// Level is the minimum log level: "debug", "info", "warn", "warning" or "error".
	Level string `koanf:"level"`

	// Format is the output format: "text" or "json".
	Format string `koanf:"format"`

	// AddSource includes the caller's file and line in every record.
	AddSource bool `koanf:"add_source"`
}

// DefaultConfig returns info-level text logging.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
	}
}

// Validate reports invalid Level or Format values.
func (c Config) Validate() error {
	if _, err := parseLevel(c.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Format)
	}
}

// Setup installs a logger writing to os.Stderr as the slog default.
// attrs are attached to every record, e.g. the service name.
func Setup(cfg Config, attrs ...slog.Attr) error {
	logger, err := New(cfg, os.Stderr)
	if err != nil {
		return fmt.Errorf("setup slog: %w", err)
	}
	if len(attrs) > 0 {
		logger = slog.New(logger.Handler().WithAttrs(attrs))
	}
	slog.SetDefault(logger)
	return nil
}

// New creates a logger writing to w.
func New(cfg Config, w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}
	switch strings.ToLower(cfg.Format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, cfg.Format)
	}
}

// Err returns the conventional "error" attribute for err.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}
