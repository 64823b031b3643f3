package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger constructs the service logger. Development and CLI runs get a
// human readable console writer; every other environment logs JSON.
func NewLogger(appEnv string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if appEnv == "cli" {
		out = os.Stderr
	}
	return newLogger(appEnv, out)
}

func newLogger(appEnv string, out io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		if parsed, err := zerolog.ParseLevel(v); err == nil {
			level = parsed
		}
	}

	if appEnv == "development" || appEnv == "cli" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "dreamscape").
		Logger()
}
