package main

import (
	"log/slog"
	"os"

	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

// newLogger builds the *slog.Logger handed to core.Options, backed by a
// zerolog console writer. Components log through the slog facade; zerolog
// owns formatting and level filtering underneath.
func newLogger(debug bool) *slog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()

	slogLevel := slog.LevelInfo
	if debug {
		slogLevel = slog.LevelDebug
	}

	handler := slogzerolog.Option{Level: slogLevel, Logger: &zlog}.NewZerologHandler()

	return slog.New(handler)
}
