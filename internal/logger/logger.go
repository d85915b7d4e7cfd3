// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options control logger construction.
type Options struct {
	Env     string    // "dev" selects the human-readable console writer
	Verbose bool      // debug level instead of info
	Out     io.Writer // defaults to stderr
}

// New builds a logger and installs it as the global log.Logger.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	var logger zerolog.Logger
	if opts.Env == "dev" {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
		logger = zerolog.New(out).With().Timestamp().Logger()
	}
	logger = logger.Level(level)

	log.Logger = logger
	return logger
}

// FromEnv builds the logger from APP_ENV and LOG_LEVEL=debug.
func FromEnv(out io.Writer) zerolog.Logger {
	return New(Options{
		Env:     os.Getenv("APP_ENV"),
		Verbose: os.Getenv("LOG_LEVEL") == "debug",
		Out:     out,
	})
}
