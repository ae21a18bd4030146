package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":         zerolog.InfoLevel,
		"DEBUG":    zerolog.DebugLevel,
		" warning": zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"off":      zerolog.Disabled,
		"verbose":  zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestInitJSONWithComponent(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })
	var buf bytes.Buffer
	Init(Config{Format: "json", Level: "debug", Component: "agent", Output: &buf})

	log.Debug().Str("topic", "handshake").Msg("sent")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "agent", entry["component"])
	assert.Equal(t, "handshake", entry["topic"])
	assert.Equal(t, "debug", entry["level"])
	assert.Contains(t, entry, "time")
}

func TestInitLevelFilters(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })
	var buf bytes.Buffer
	l := Init(Config{Format: "json", Level: "warn", Output: &buf})

	l.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
	Logger().Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := Init(Config{Format: "console", Output: &buf})
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}
