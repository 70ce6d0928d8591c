package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Json format with component", func(t *testing.T) {
		//** Arrange
		var buffer bytes.Buffer
		logger := Component(New(Config{Level: "info", Format: "json"}, &buffer), "optimizer")

		//** Act
		logger.Info().Int("runs", 5).Msg("repair finished")
		logger.Debug().Msg("filtered out")

		//** Assert
		var event map[string]any
		require.NoError(t, json.Unmarshal(buffer.Bytes(), &event))
		assert.Equal(t, "info", event["level"])
		assert.Equal(t, "optimizer", event["component"])
		assert.Equal(t, "repair finished", event["message"])
		assert.Equal(t, 5.0, event["runs"])
		assert.Contains(t, event, "time")
	})

	t.Run("Console format", func(t *testing.T) {
		//** Arrange
		var buffer bytes.Buffer
		logger := New(DefaultConfig(), &buffer)

		//** Act
		logger.Warn().Str("instance", "small.json").Msg("capacity check skipped")

		//** Assert
		assert.Contains(t, buffer.String(), "capacity check skipped")
		assert.Contains(t, buffer.String(), "instance=")
	})
}

func TestParseLevel(t *testing.T) {
	scenarios := map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		"INFO":     zerolog.InfoLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"verbose":  zerolog.InfoLevel,
	}

	for level, expected := range scenarios {
		assert.Equalf(t, expected, parseLevel(level), "level %v", level)
	}
}
