package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnFileChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := GetDefaultConfig()
	require.NoError(t, SaveConfig(cfg, path))

	changes := make(chan *Config, 1)
	w, err := Watch(path, func(c *Config, err error) {
		require.NoError(t, err)
		changes <- c
	})
	require.NoError(t, err)
	require.NotNil(t, w)

	updated := GetDefaultConfig()
	updated.Logging.Level = "DEBUG"
	require.NoError(t, SaveConfig(updated, path))

	select {
	case c := <-changes:
		assert.Equal(t, "DEBUG", c.Logging.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestWatch_MissingFileReturnsDefaultsWatcher(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "missing.yaml")
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))

	w, err := Watch(path, func(*Config, error) {})
	require.NoError(t, err)
	require.NotNil(t, w)
}
