package slogobs

import (
	"io"
	"log/slog"
	"os"
)

// Option configures the Observer built by [New].
type Option func(*config)

// config collects the values the options write into.
type config struct {
	format Format
	level  slog.Level
	output io.Writer
	colors bool

	// logger, when set, is used directly and the handler-building options
	// above are ignored.
	logger *slog.Logger
}

// WithFormat sets the log output format.
func WithFormat(format Format) Option {
	return func(c *config) {
		c.format = format
	}
}

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithOutput sets the writer logs are written to.
func WithOutput(output io.Writer) Option {
	return func(c *config) {
		c.output = output
	}
}

// WithColors forces ANSI colors on or off. Applies to the compact and pretty
// formats only; without this option colors follow terminal detection.
func WithColors(enabled bool) Option {
	return func(c *config) {
		c.colors = enabled
	}
}

// WithLogger routes all events through an existing slog.Logger instead of
// building a handler. Takes precedence over WithFormat, WithLevel, WithOutput
// and WithColors.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// defaultConfig seeds the config from the environment: LLMWIRE_LOG_FORMAT and
// LLMWIRE_LOG_LEVEL (with LOG_FORMAT / LOG_LEVEL as generic fallbacks),
// writing compact INFO logs to stdout.
func defaultConfig() *config {
	return &config{
		format: GetFormatFromEnv(),
		level:  GetLogLevelFromEnv(),
		output: os.Stdout,
		colors: false,
	}
}

func applyOptions(opts ...Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
