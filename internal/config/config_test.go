package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"computegate/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_CONFIG_FILE", "")
	t.Setenv("APP_LISTEN_ADDR", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 1024, cfg.UsageQueueSize)
	assert.Equal(t, time.Minute, cfg.ExpirySweepInterval)
	assert.Zero(t, cfg.ReconcileInterval)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "listen_addr: \":9090\"\nbcrypt_cost: 12\nreconcile_interval: 5m\nlog_format: json\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("APP_CONFIG_FILE", path)
	t.Setenv("APP_BCRYPT_COST", "4")
	t.Setenv("APP_USAGE_QUEUE_SIZE", "not-a-number")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, 5*time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 1024, cfg.UsageQueueSize)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("APP_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := config.Load()
	require.Error(t, err)
}
