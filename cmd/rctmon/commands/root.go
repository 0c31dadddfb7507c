// Package commands implements the rctmon CLI.
package commands

import (
	"os"

	cfgcmd "github.com/svalouch/rctmon/cmd/rctmon/commands/config"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rctmon",
	Short: "rctmon - RCT Power inverter monitoring daemon",
	Long: `rctmon connects to an RCT Power solar inverter's TCP control surface,
polls it via a managed-frame scheduler, and exposes the decoded readings as
Prometheus metrics, an InfluxDB push sink, and an MQTT bus sink.

Use "rctmon [command] --help" for more information about a command.

Configuration is read from $XDG_CONFIG_HOME/rctmon/config.yaml by default,
layered under environment variables of the form RCTMON_SECTION_FIELD
(e.g. RCTMON_LOGGING_LEVEL=DEBUG).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/rctmon/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cfgcmd.Cmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
