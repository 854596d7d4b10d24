package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/splitflow/splitflow/internal/daemon"
)

func init() {
	rootCmd.AddCommand(settleCmd)
	settleCmd.Flags().String("currency", "EUR", "ISO 4217 currency code")
}

var settleCmd = &cobra.Command{
	Use:   "settle PAYMENT_ID AMOUNT",
	Short: "Settle one payment without running the daemon",
	Long: `Run a single settlement against the configured channels and print the
per-channel report. Useful for replaying a webhook delivery by hand;
the same idempotency guard applies, so a payment already settled by
the daemon is reported as deduplicated.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettle,
}

func runSettle(cmd *cobra.Command, args []string) error {
	paymentID := args[0]
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}
	currency, _ := cmd.Flags().GetString("currency")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	report, err := d.Orchestrator().Settle(context.Background(), paymentID, amount, currency)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
