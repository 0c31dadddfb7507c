package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func withTempXDGConfigHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	return tmpDir
}

func TestInitConfig_Success(t *testing.T) {
	withTempXDGConfigHome(t)

	configPath, err := InitConfig(false)
	require.NoError(t, err)

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)

	contentStr := string(content)
	for _, section := range []string{"# rctmon Configuration File", "logging:", "device:", "prometheus:", "influxdb:", "mqtt:"} {
		assert.Contains(t, contentStr, section)
	}

	var cfg Config
	require.NoError(t, yaml.Unmarshal(content, &cfg))
}

func TestInitConfig_AlreadyExists(t *testing.T) {
	withTempXDGConfigHome(t)

	_, err := InitConfig(false)
	require.NoError(t, err)

	_, err = InitConfig(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitConfig_Force(t *testing.T) {
	withTempXDGConfigHome(t)

	configPath, err := InitConfig(false)
	require.NoError(t, err)

	_, err = InitConfig(true)
	require.NoError(t, err)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestInitConfigToPath_Success(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom", "config.yaml")

	require.NoError(t, InitConfigToPath(configPath, false))

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, yaml.Unmarshal(content, &cfg))
}

func TestInitConfigToPath_AlreadyExists(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	require.NoError(t, InitConfigToPath(configPath, false))

	err := InitConfigToPath(configPath, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestGeneratedConfigIsLoadable(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	require.NoError(t, InitConfigToPath(configPath, false))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "192.168.1.100", cfg.Device.Host)
	assert.Equal(t, 8899, cfg.Device.Port)
	assert.True(t, cfg.Prometheus.Enable)
}
