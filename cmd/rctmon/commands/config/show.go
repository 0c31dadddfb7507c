package config

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/svalouch/rctmon/internal/cli/output"
	"github.com/svalouch/rctmon/pkg/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the current rctmon configuration, as loaded from the config file,
environment variables, and defaults.

By default outputs YAML. Use --output to change format.

Examples:
  # Show effective config as YAML
  rctmon config show

  # Show as JSON
  rctmon config show --output json

  # Show a specific config file
  rctmon --config /etc/rctmon/config.yaml config show`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, cfg)
	default:
		return output.PrintYAML(os.Stdout, cfg)
	}
}
