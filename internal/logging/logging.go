package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config describes logger runtime configuration.
type Config struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
	Caller     bool   `mapstructure:"caller"`
	// Stderr keeps log lines away from stdout, where the terminal pages render.
	Stderr bool `mapstructure:"stderr"`
}

// NewLogger constructs a zerolog logger from config.
func NewLogger(cfg Config) zerolog.Logger {
	return NewLoggerTo(outputFor(cfg), cfg)
}

// NewLoggerTo builds the logger on top of an explicit writer.
func NewLoggerTo(out io.Writer, cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil && cfg.Level != "" {
		level = parsed
	}

	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: zerolog.TimeFieldFormat,
		}
	}

	builder := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Caller {
		builder = builder.Caller()
	}
	return builder.Logger()
}

// Component derives a child logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

func outputFor(cfg Config) io.Writer {
	if cfg.Stderr {
		return os.Stderr
	}
	return os.Stdout
}
