package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the rctmon daemon configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (RCTMON_*)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Device configures the TCP connection to the inverter
	Device DeviceConfig `mapstructure:"device" yaml:"device"`

	// Prometheus configures the scrape-style metrics endpoint
	Prometheus PrometheusConfig `mapstructure:"prometheus" yaml:"prometheus"`

	// InfluxDB configures the time-series database push sink
	InfluxDB InfluxDBConfig `mapstructure:"influxdb" yaml:"influxdb"`

	// MQTT configures the message-bus push sink
	MQTT MQTTConfig `mapstructure:"mqtt" yaml:"mqtt"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format: text or json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// DeviceConfig configures the TCP connection to the inverter.
type DeviceConfig struct {
	// Host is the inverter's hostname or IP address
	Host string `mapstructure:"host" validate:"required" yaml:"host"`

	// Port is the inverter's control-surface TCP port
	Port int `mapstructure:"port" validate:"required,min=1,max=65535" yaml:"port"`
}

// PrometheusConfig configures the scrape-style metrics endpoint.
//
// Setting Exposition to true implies Enable is true (see ApplyDefaults).
type PrometheusConfig struct {
	// Enable controls whether the readings are collected at all
	Enable bool `mapstructure:"enable" yaml:"enable"`

	// Exposition controls whether the HTTP /metrics endpoint is served.
	// Implies Enable.
	Exposition bool `mapstructure:"exposition" yaml:"exposition"`

	// BindAddress is the interface address the HTTP server listens on
	BindAddress string `mapstructure:"bind_address" yaml:"bind_address"`

	// BindPort is the HTTP port for the metrics endpoint
	BindPort int `mapstructure:"bind_port" validate:"omitempty,min=1,max=65535" yaml:"bind_port"`
}

// InfluxDBConfig configures the time-series database push sink.
type InfluxDBConfig struct {
	// Enable controls whether the InfluxDB push sink is active
	Enable bool `mapstructure:"enable" yaml:"enable"`

	// URL is the InfluxDB server endpoint
	URL string `mapstructure:"url" validate:"required_if=Enable true" yaml:"url"`

	// Token is the InfluxDB API token (secret)
	Token string `mapstructure:"token" yaml:"token"`

	// Org is the InfluxDB organization name
	Org string `mapstructure:"org" validate:"required_if=Enable true" yaml:"org"`

	// Bucket is the InfluxDB bucket name
	Bucket string `mapstructure:"bucket" validate:"required_if=Enable true" yaml:"bucket"`
}

// MQTTConfig configures the message-bus push sink.
type MQTTConfig struct {
	// Enable controls whether the MQTT bus sink is active
	Enable bool `mapstructure:"enable" yaml:"enable"`

	// Host is the MQTT broker hostname or IP address
	Host string `mapstructure:"mqtt_host" validate:"required_if=Enable true" yaml:"mqtt_host"`

	// Port is the MQTT broker port
	Port int `mapstructure:"mqtt_port" validate:"omitempty,min=1,max=65535" yaml:"mqtt_port"`

	// ClientName is the MQTT client identifier
	ClientName string `mapstructure:"client_name" yaml:"client_name"`

	// FlushInterval is the cadence at which buffered samples are published.
	// Stored on disk as a whole number of seconds; see Seconds.
	FlushInterval Seconds `mapstructure:"flush_interval_seconds" yaml:"flush_interval_seconds"`

	// TopicPrefix is prepended to every published topic path
	TopicPrefix string `mapstructure:"topic_prefix" yaml:"topic_prefix"`

	// Retain controls the MQTT retain flag on published samples.
	// A pointer so "unset in config file" (default true) is distinguishable
	// from "explicitly set to false", mirroring the teacher's ServerConfig
	// *bool Enabled convention.
	Retain *bool `mapstructure:"mqtt_retain" yaml:"mqtt_retain"`

	// AuthUser is the optional MQTT username
	AuthUser string `mapstructure:"auth_user" yaml:"auth_user,omitempty"`

	// AuthPass is the optional MQTT password (secret)
	AuthPass string `mapstructure:"auth_pass" yaml:"auth_pass,omitempty"`

	// TLSEnable controls whether the MQTT connection uses TLS
	TLSEnable bool `mapstructure:"tls_enable" yaml:"tls_enable"`

	// TLSInsecure disables server certificate verification when true
	TLSInsecure bool `mapstructure:"tls_insecure" yaml:"tls_insecure"`

	// TLSCACert is the path to a CA certificate bundle
	TLSCACert string `mapstructure:"tls_ca_cert" yaml:"tls_ca_cert,omitempty"`

	// TLSCertFile is the path to the client certificate
	TLSCertFile string `mapstructure:"tls_certfile" yaml:"tls_certfile,omitempty"`

	// TLSKeyFile is the path to the client private key
	TLSKeyFile string `mapstructure:"tls_keyfile" yaml:"tls_keyfile,omitempty"`
}

// RetainEnabled reports the effective MQTT retain flag, defaulting to true
// when unset (ApplyDefaults normally fills this in already).
func (cfg MQTTConfig) RetainEnabled() bool {
	return cfg.Retain == nil || *cfg.Retain
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (RCTMON_*)
//  2. Configuration file
//  3. Default values
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides user-friendly instructions if not.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  rctmon config init\n\n"+
				"Or specify a custom config file:\n"+
				"  rctmon run --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  rctmon config init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600 because the influxdb token and mqtt password may live here in plaintext.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration satisfies its struct tag constraints
// plus any cross-field rules not expressible as tags.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}

	if cfg.Prometheus.Exposition && !cfg.Prometheus.Enable {
		return fmt.Errorf("prometheus.exposition=true requires prometheus.enable=true")
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use RCTMON_ prefix and underscores.
	// Example: RCTMON_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("RCTMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// Seconds is a time.Duration that is always persisted on disk as a plain
// integer number of seconds. yaml.Marshal has no special case for
// time.Duration: a bare time.Duration field round-trips through SaveConfig
// as its raw nanosecond int64, which durationDecodeHook would then
// re-multiply by time.Second on the next Load, silently turning e.g. 30s
// into centuries. Keeping a dedicated type with its own MarshalYAML keeps
// the on-disk units and the decode hook's units in agreement.
type Seconds time.Duration

// Duration returns the value as a time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(s)
}

// MarshalYAML renders the value as a plain integer number of seconds.
func (s Seconds) MarshalYAML() (interface{}, error) {
	return int64(time.Duration(s) / time.Second), nil
}

// configDecodeHooks returns a combined decode hook for custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// and numbers to Seconds. Config files may use either a plain integer number
// of seconds (mqtt.flush_interval_seconds) or a duration string ("30s", "5m").
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(Seconds(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if d, err := time.ParseDuration(v); err == nil {
				return Seconds(d), nil
			}
			d, err := time.ParseDuration(v + "s")
			if err != nil {
				return nil, err
			}
			return Seconds(d), nil
		case int:
			return Seconds(time.Duration(v) * time.Second), nil
		case int64:
			return Seconds(time.Duration(v) * time.Second), nil
		case float64:
			return Seconds(time.Duration(v) * time.Second), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "rctmon")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "rctmon")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
