package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyLoggingDefaults_NormalizesCase(t *testing.T) {
	cfg := &LoggingConfig{Level: "debug"}
	applyLoggingDefaults(cfg)
	assert.Equal(t, "DEBUG", cfg.Level)
}

func TestApplyDeviceDefaults_PortOnly(t *testing.T) {
	cfg := &DeviceConfig{Host: "1.2.3.4"}
	applyDeviceDefaults(cfg)
	assert.Equal(t, "1.2.3.4", cfg.Host)
	assert.Equal(t, 8899, cfg.Port)
}

func TestApplyDeviceDefaults_PreservesExplicitPort(t *testing.T) {
	cfg := &DeviceConfig{Host: "1.2.3.4", Port: 9999}
	applyDeviceDefaults(cfg)
	assert.Equal(t, 9999, cfg.Port)
}

func TestApplyMQTTDefaults_PortAndInterval(t *testing.T) {
	cfg := &MQTTConfig{}
	applyMQTTDefaults(cfg)
	assert.Equal(t, 1883, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.FlushInterval.Duration())
	assert.True(t, cfg.RetainEnabled())
}
