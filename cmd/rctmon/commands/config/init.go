package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/svalouch/rctmon/internal/cli/prompt"
	"github.com/svalouch/rctmon/pkg/config"
)

var (
	initForce       bool
	initInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample rctmon configuration file.

By default, the configuration file is created at
$XDG_CONFIG_HOME/rctmon/config.yaml. Use --config on the root command to
specify a custom path.

Examples:
  # Initialize with default location
  rctmon config init

  # Initialize with custom path
  rctmon --config /etc/rctmon/config.yaml config init

  # Force overwrite an existing config file
  rctmon config init --force

  # Walk through the inverter host/port interactively
  rctmon config init --interactive`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Prompt for device host and port instead of writing the sample defaults")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")

	var host string
	var port int
	if initInteractive {
		var err error
		host, err = prompt.InputRequired("Inverter host or IP address")
		if err != nil {
			return fmt.Errorf("aborted: %w", err)
		}
		port, err = prompt.InputPort("Inverter control-surface port", 8899)
		if err != nil {
			return fmt.Errorf("aborted: %w", err)
		}
	}

	var configPath string
	var err error
	if configFile != "" {
		configPath = configFile
		err = config.InitConfigToPath(configPath, initForce)
	} else {
		configPath, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	if initInteractive {
		if err := applyDeviceOverride(configPath, host, port); err != nil {
			return fmt.Errorf("failed to apply device settings: %w", err)
		}
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Validate it with: rctmon config validate")
	fmt.Printf("  3. Start the daemon with: rctmon run --config %s\n", configPath)

	return nil
}

// applyDeviceOverride rewrites the just-written sample config's device
// section with the interactively collected host and port, then re-saves it.
func applyDeviceOverride(configPath, host string, port int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.Device.Host = host
	cfg.Device.Port = port
	return config.SaveConfig(cfg, configPath)
}
