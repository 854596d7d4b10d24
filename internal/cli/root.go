// Package cli implements the splitflow command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/splitflow/splitflow/internal/daemon"
)

var rootCmd = &cobra.Command{
	Use:   "splitflow",
	Short: "Payment settlement orchestrator",
	Long: `splitflow splits confirmed incoming payments across reserve, on-chain
and profit channels. It runs as a daemon behind a verified webhook
forwarder, deduplicates at-least-once deliveries, and records a
per-channel settlement report for every payment.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.splitflow/config.toml)")
}

// loadConfig resolves the --config flag and loads the configuration.
func loadConfig(cmd *cobra.Command) (daemon.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = daemon.ConfigPath()
	}
	return daemon.Load(path)
}

// openDaemon wires a daemon instance for one-shot commands; the caller must
// Close it.
func openDaemon(cmd *cobra.Command) (*daemon.Daemon, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return daemon.New(cfg)
}
