package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := defaults()

	assert.Equal(t, ":1337", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "auto", cfg.Model.Device)
	assert.Equal(t, 1, cfg.Model.PoolSize)
	assert.Equal(t, 1024, cfg.Model.InputSize)
	assert.Equal(t, "input_image", cfg.Model.InputName)
	assert.Empty(t, cfg.Auth.APIKey)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  addr: ":9000"
  mode: release
  read_timeout: 30m
model:
  device: cpu
  pool_size: 2
auth:
  api_key: hunter2
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 30*time.Minute, cfg.Server.ReadTimeout)
	assert.Equal(t, "cpu", cfg.Model.Device)
	assert.Equal(t, 2, cfg.Model.PoolSize)
	assert.Equal(t, "hunter2", cfg.Auth.APIKey)
	// untouched keys keep defaults
	assert.Equal(t, 1024, cfg.Model.InputSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	// an absent file must stay distinguishable so New can fall back to defaults
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not: valid"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, os.ErrNotExist)
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("TOONOUT_API_KEY", "from-env")

	cfg := defaults()

	assert.Equal(t, "from-env", cfg.Auth.APIKey)
}
