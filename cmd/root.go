// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"quillfire.xyz/ipgate/internal/config"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ipgate",
	Short: "ipgate - microprogrammed IPv4 header pipeline",
	Long: `ipgate runs IPv4 headers through a microprogrammed pipeline:
TTL decrement, checksum recomputation and two exact-match firewall lookups
(source and destination address), producing a single drop decision per header.

The pipeline is tick-accurate: a data-driven microprogram sequences the
stages, stalling while the firewall scanner walks the blocked-address table.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (default: built-in sample configuration)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
}

// loadConfig loads the configured file, or the built-in defaults when no
// file was given.
func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
