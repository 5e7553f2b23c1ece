package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  env: staging\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.applyDefaults()

	assert.Equal(t, "staging", cfg.Server.Env)
	assert.Equal(t, 60, cfg.Tick.RateHz)
	assert.Equal(t, ":4242", cfg.Transport.Addr)
}

func TestEnvOverridesWinOverYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick:\n  rate_hz: 30\n"), 0o644))

	t.Setenv("TICK_RATE_HZ", "120")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	assert.Equal(t, 120, cfg.Tick.RateHz)
}

func TestLoadConfigMissingFileReturnsError(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}
