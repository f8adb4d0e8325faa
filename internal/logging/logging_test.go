package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/briangreenhill/petpet/internal/config"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, Level(config.LogConfig{DevLogging: "DEV_INFO"}))
	assert.Equal(t, zerolog.DebugLevel, Level(config.LogConfig{DevLogging: "DEV_DEBUG"}))
	assert.Equal(t, zerolog.WarnLevel, Level(config.LogConfig{DevLogging: "DEV_DEBUG", Level: "WARN"}))
	assert.Equal(t, zerolog.InfoLevel, Level(config.LogConfig{Level: "loud"}))
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, config.LogConfig{Format: "json", DevLogging: "DEV_INFO"})
	log.Debug().Msg("hidden")
	log.Info().Str("k", "v").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"k":"v"`)
	assert.Contains(t, out, `"time":`)
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, config.LogConfig{Format: "console", DevLogging: "DEV_DEBUG"})
	log.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}
