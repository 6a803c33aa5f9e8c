// Package wlog is the module's structured logger: a thin zerolog wrapper
// a connection falls back to when the embedding application does not
// supply its own logger.
package wlog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().
		Timestamp().
		Logger()
}

// L returns the package-wide default logger. Connection accepts a
// zerolog.Logger override at construction (wlclient.WithLogger); this is
// only the fallback.
func L() *zerolog.Logger {
	return &log
}

// SetLevel mirrors the CLI's --log-level flag: debug, info, warn, error,
// fatal, panic. Unrecognized values fall back to info.
func SetLevel(level string) {
	var lvl zerolog.Level
	switch level {
	case "debug":
		lvl = zerolog.DebugLevel
	case "info":
		lvl = zerolog.InfoLevel
	case "warn", "warning":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	case "fatal":
		lvl = zerolog.FatalLevel
	case "panic":
		lvl = zerolog.PanicLevel
	default:
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
