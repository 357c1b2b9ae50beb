package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerWithWriters_FanOut(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("ingestion complete", "records", 42)

	// Text goes to stderr, JSON to the file writer.
	assert.Contains(t, stderr.String(), "ingestion complete")
	assert.Contains(t, stderr.String(), "records=42")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &entry))
	assert.Equal(t, "ingestion complete", entry["msg"])
	assert.Equal(t, float64(42), entry["records"])
}

func TestSetupLoggerWithWriters_LevelFilter(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelWarn)

	logger.Info("filtered out")
	logger.Warn("kept")

	assert.NotContains(t, stderr.String(), "filtered out")
	assert.Contains(t, stderr.String(), "kept")
}
