package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesServiceAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{ServiceName: "users", Environment: "test", Level: "info", Output: &buf})

	log.Debug("hidden")
	log.Info("hello", "request_id", "r-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "users", entry["service"])
	assert.Equal(t, "test", entry["env"])
	assert.Equal(t, "r-1", entry["request_id"])
}

func TestNewLoggerDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: "DEBUG", Output: &buf})
	log.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
