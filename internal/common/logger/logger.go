// Package logger provides a standardized logging approach for the banksync project
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger levels
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// New creates a new structured logger with the given options
func New(opts ...Option) *slog.Logger {
	config := defaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	handlerOpts := &slog.HandlerOptions{
		Level: config.level,
	}

	var handler slog.Handler
	if config.text {
		handler = slog.NewTextHandler(config.output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(config.output, handlerOpts)
	}

	return slog.New(handler)
}

// Config holds the logger configuration
type config struct {
	level  slog.Level
	output io.Writer
	text   bool
}

func defaultConfig() *config {
	return &config{
		level:  LevelInfo,
		output: os.Stdout,
	}
}

// Option configures the logger
type Option func(*config)

// WithLevel sets the minimum log level
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithOutput sets the output writer
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		c.output = w
	}
}

// WithText switches to the human-readable text handler, for local development
func WithText() Option {
	return func(c *config) {
		c.text = true
	}
}
