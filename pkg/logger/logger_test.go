package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{Level: "info", JSON: true, Output: &buf})

	log.Debug("hidden")
	log.Info("Booked appointment", "appointment_id", "a1", "doctor", "Dr. Smith")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Booked appointment", entry["message"])
	assert.Equal(t, "a1", entry["appointment_id"])
	assert.Equal(t, "Dr. Smith", entry["doctor"])
	assert.Contains(t, entry, "time")
}

func TestErrorAndWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{Level: "debug", JSON: true, Output: &buf}).
		WithFields(map[string]interface{}{"component": "outbox"})

	log.Error(errors.New("redis down"), "Failed to publish")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "redis down", entry["error"])
	assert.Equal(t, "outbox", entry["component"])
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinic.log")
	var buf bytes.Buffer
	log := NewLogger(&Config{
		Level:     "info",
		JSON:      true,
		Output:    &buf,
		File:      true,
		FilePath:  path,
		MaxSizeMB: 1,
	})

	log.Warn("Write-set rejected by store", "code", "stale_state")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "stale_state")
	assert.Contains(t, buf.String(), "stale_state")
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{Level: "loud", JSON: true, Output: &buf})

	log.Debug("hidden")
	assert.Empty(t, buf.String())

	log.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}
