package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/svalouch/rctmon/internal/cli/output"
	"github.com/svalouch/rctmon/internal/cli/timeutil"
	"github.com/svalouch/rctmon/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the rctmon configuration file.

Checks for syntax errors, missing required fields, and invalid values, then
prints a summary of the sinks that are enabled.

Examples:
  # Validate default config
  rctmon config validate

  # Validate specific config file
  rctmon --config /etc/rctmon/config.yaml config validate`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	if cfg.InfluxDB.Enable && cfg.InfluxDB.Token == "" {
		warnings = append(warnings, "influxdb is enabled but no API token is configured")
	}
	if cfg.MQTT.Enable && cfg.MQTT.TLSEnable && cfg.MQTT.TLSInsecure {
		warnings = append(warnings, "mqtt TLS certificate verification is disabled")
	}
	if !cfg.Prometheus.Enable && !cfg.InfluxDB.Enable && !cfg.MQTT.Enable {
		warnings = append(warnings, "no output sink is enabled; readings will be decoded but never published")
	}

	checkedAt := timeutil.FormatTime(time.Now().Format(time.RFC3339))

	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Printf("Checked at:         %s\n", checkedAt)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	rows := [][2]string{
		{"Device target", fmt.Sprintf("%s:%d", cfg.Device.Host, cfg.Device.Port)},
		{"Log level", cfg.Logging.Level},
		{"Log format", cfg.Logging.Format},
		{"Prometheus exposition", onOff(cfg.Prometheus.Exposition)},
		{"InfluxDB push", onOff(cfg.InfluxDB.Enable)},
		{"MQTT bus", onOff(cfg.MQTT.Enable)},
	}
	fmt.Println("\nConfiguration summary:")
	return output.SimpleTable(os.Stdout, rows)
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
