// Package logging builds the process logger.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/petpet/internal/config"
)

// Level picks the log level: an explicit LOG_LEVEL wins, otherwise
// DEV_LOGGING=DEV_DEBUG means debug and anything else info.
func Level(cfg config.LogConfig) zerolog.Level {
	if cfg.Level != "" {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil {
			return lvl
		}
	}
	if cfg.DevLogging == "DEV_DEBUG" {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// New returns a timestamped logger writing to w.
func New(w io.Writer, cfg config.LogConfig) zerolog.Logger {
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(Level(cfg)).With().Timestamp().Logger()
}
