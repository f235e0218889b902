package app

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&Config{LogFormat: "json", LogLevel: "info"}, &buf)
		logger.Info("hello")
		assert.Contains(t, buf.String(), `"msg":"hello"`)
	})

	t.Run("text format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&Config{LogFormat: "text", LogLevel: "info"}, &buf)
		logger.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("level filters lower records", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&Config{LogFormat: "text", LogLevel: "error"}, &buf)
		logger.Info("dropped")
		logger.Error("kept")
		assert.NotContains(t, buf.String(), "dropped")
		assert.Contains(t, buf.String(), "kept")
	})

	t.Run("unknown settings fall back to info and text", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&Config{LogFormat: "xml", LogLevel: "chatty"}, &buf)
		logger.Debug("dropped")
		logger.Info("kept")
		assert.NotContains(t, buf.String(), "dropped")
		assert.Contains(t, buf.String(), "msg=kept")
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("anything"))
}
