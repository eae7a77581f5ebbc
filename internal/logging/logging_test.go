package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/imagekit/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log, _ := New(config.LoggingConfig{Level: "info", Format: "text"}, &buf)

	log.Debug("hidden")
	log.Info("image opened", "format", "PNG")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=\"image opened\"")
	assert.Contains(t, out, "format=PNG")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, _ := New(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)

	log.Debug("crop", "width", 20)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "crop", rec["msg"])
	assert.Equal(t, float64(20), rec["width"])
}

func TestNew_LevelVar(t *testing.T) {
	var buf bytes.Buffer
	log, lvl := New(config.LoggingConfig{Level: "error", Format: "text"}, &buf)

	log.Warn("first")
	assert.Empty(t, buf.String())

	lvl.Set(slog.LevelWarn)
	log.Warn("second")
	assert.Contains(t, buf.String(), "second")
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}
