// Package logger configures the process-wide zerolog setup.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the root logger: pretty console output in development, JSON
// otherwise.
func New(env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
			With().
			Timestamp().
			Logger()
	}

	return zerolog.New(os.Stderr).
		With().
		Timestamp().
		Logger()
}
