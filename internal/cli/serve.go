package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/splitflow/splitflow/internal/daemon"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "", "Bind host (overrides config)")
	serveCmd.Flags().Int("port", 0, "Bind port (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the settlement daemon",
	Long: `Start the HTTP settlement daemon. The daemon accepts verified webhook
deliveries on POST /v1/settlements and serves stored reports until it
receives SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.API.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.API.Port = port
	}

	d, err := daemon.New(cfg)
	if err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	return d.Run(context.Background())
}
