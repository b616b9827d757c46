package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the logging contract handed to every package.
type Logger = zerolog.Logger

// NewLogger builds the service logger. Development gets a console writer at
// debug level, test discards output, everything else writes JSON to stdout.
func NewLogger(appEnv string) zerolog.Logger {
	var out io.Writer = os.Stdout
	level := zerolog.InfoLevel
	switch appEnv {
	case "development":
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	case "test":
		out = io.Discard
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "bouw").
		Logger()
}
