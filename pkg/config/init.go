package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// sampleConfigTemplate is written out by InitConfig/InitConfigToPath. Kept as
// a literal YAML document (rather than generated via yaml.Marshal(GetDefaultConfig()))
// so the file carries comments explaining each section, matching the
// teacher's own generated-sample-config convention.
const sampleConfigTemplate = `# rctmon Configuration File
#
# See https://github.com/svalouch/rctmon for the full configuration
# reference. Environment variables of the form RCTMON_SECTION_FIELD
# override any value set here (e.g. RCTMON_LOGGING_LEVEL=DEBUG).

logging:
  level: INFO
  format: text
  output: stdout

device:
  host: 192.168.1.100
  port: 8899

prometheus:
  enable: true
  exposition: true
  bind_address: 0.0.0.0
  bind_port: 9831

influxdb:
  enable: false
  url: http://localhost:8086
  token: ""
  org: ""
  bucket: rctmon

mqtt:
  enable: false
  mqtt_host: localhost
  mqtt_port: 1883
  client_name: rctmon
  flush_interval_seconds: 30
  topic_prefix: rctmon
  mqtt_retain: true
  tls_enable: false
  tls_insecure: false
`

// InitConfig writes a sample configuration file to the default location
// ($XDG_CONFIG_HOME/rctmon/config.yaml), refusing to overwrite an existing
// file unless force is set. Returns the path written.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a sample configuration file to path, refusing to
// overwrite an existing file unless force is set.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(sampleConfigTemplate), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
