package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportGetCmd)
	reportCmd.AddCommand(reportListCmd)
	reportListCmd.Flags().IntP("limit", "n", 20, "Maximum number of reports")
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inspect stored settlement reports",
}

// ─── report get ─────────────────────────────────────────────────────────────

var reportGetCmd = &cobra.Command{
	Use:   "get PAYMENT_ID",
	Short: "Print the stored report for one payment",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportGet,
}

func runReportGet(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	report, err := d.Store().GetReport(args[0])
	if err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("no settlement recorded for %q", args[0])
	}
	return printJSON(report)
}

// ─── report list ────────────────────────────────────────────────────────────

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent settlement reports, newest first",
	RunE:  runReportList,
}

func runReportList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	reports, err := d.Store().ListReports(limit)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Fprintln(os.Stdout, "No settlements recorded.")
		return nil
	}
	for _, r := range reports {
		status := "settled"
		if r.Deduped {
			status = "deduped"
		}
		fmt.Fprintf(os.Stdout, "%s  %s  %s  %dms\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.PaymentID, status, r.DurationMs)
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
