package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  driver: sqlite
  path: ":memory:"
redis:
  channel: clinic.test
outbox:
  poll_interval: 250ms
  max_deliveries: 4
clinic:
  timezone: UTC
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.Outbox.PollInterval)
	assert.Equal(t, time.UTC, cfg.Location())

	// defaults fill what the file leaves out
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 50, cfg.Outbox.BatchSize)
	assert.True(t, cfg.RateLimit.Enabled)

	wc := cfg.ToWorkerConfig()
	assert.Equal(t, "clinic.test", wc.Channel)
	assert.Equal(t, 4, wc.MaxDeliveries)
	assert.Equal(t, 250*time.Millisecond, wc.PollInterval)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
  host: db.internal
`)
	t.Setenv("DATABASE_HOST", "db.override")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "db.override", cfg.Database.Host)
	assert.Equal(t, "debug", cfg.ToLoggerConfig().Level)
}

func TestLoadConfigRejectsInvalidSettings(t *testing.T) {
	tests := map[string]string{
		"driver":   "database:\n  driver: mysql\n",
		"timezone": "clinic:\n  timezone: Mars/Olympus_Mons\n",
		"outbox":   "outbox:\n  enabled: true\n  batch_size: 0\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
