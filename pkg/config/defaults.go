package config

import (
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", false) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyDeviceDefaults(&cfg.Device)
	applyPrometheusDefaults(&cfg.Prometheus)
	applyMQTTDefaults(&cfg.MQTT)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyDeviceDefaults sets the inverter connection defaults.
func applyDeviceDefaults(cfg *DeviceConfig) {
	if cfg.Port == 0 {
		cfg.Port = 8899
	}
}

// applyPrometheusDefaults sets scrape-endpoint defaults.
// Exposition=true implies Enable=true.
func applyPrometheusDefaults(cfg *PrometheusConfig) {
	if cfg.Exposition {
		cfg.Enable = true
	}
	if cfg.BindPort == 0 {
		cfg.BindPort = 9831
	}
}

// applyMQTTDefaults sets MQTT bus sink defaults.
func applyMQTTDefaults(cfg *MQTTConfig) {
	if cfg.Port == 0 {
		cfg.Port = 1883
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = Seconds(30 * time.Second)
	}
	if cfg.Retain == nil {
		retain := true
		cfg.Retain = &retain
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Logging: LoggingConfig{},
		Device: DeviceConfig{
			Host: "localhost",
		},
		Prometheus: PrometheusConfig{
			Enable:      true,
			Exposition:  false,
			BindAddress: "0.0.0.0",
		},
		InfluxDB: InfluxDBConfig{
			Enable: false,
		},
		MQTT: MQTTConfig{
			Enable:     false,
			ClientName: "rctmon",
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
