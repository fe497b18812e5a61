package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_ProductionWritesJSON(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	Init(Options{Output: &buf})

	slog.Info("recording processed", "recording_id", "rec-1")
	slog.Debug("hidden at info level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "recording processed", entry["msg"])
	assert.Equal(t, "rec-1", entry["recording_id"])
	assert.NotContains(t, buf.String(), "hidden at info level")
}

func TestInit_DevelopmentWritesText(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	log := Init(Options{Development: true, Output: &buf})

	log.Debug("step started", "step", "transcribe")

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "step=transcribe")
}
