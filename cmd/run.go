package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/voltgrid/billnotify/internal/config"
	"github.com/voltgrid/billnotify/internal/logger"
	"github.com/voltgrid/billnotify/internal/processor"
	"github.com/voltgrid/billnotify/internal/storage"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one billing cycle",
	Long: `Attempt a payment for every customer in the roster and notify the
customers whose payment failed. The run report is printed and persisted.

Exits non-zero when any customer ends the run in notification-failed.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("customers", "", "Customer roster file (overrides BILLNOTIFY_CUSTOMER_FILE)")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("customers") {
		cfg.CustomerFile, _ = cmd.Flags().GetString("customers")
	}

	logg := logger.New(cfg.LogFile, cfg.SlogLevel())

	customers, err := storage.LoadCustomers(cfg.CustomerFile)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	proc := buildProcessor(cfg, logg, nil)
	report := proc.Run(ctx, customers)

	db, err := storage.NewSQLiteDB(cfg.DBPath(), logg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	if err := storage.NewSQLiteRunStore(db).SaveRun(ctx, report); err != nil {
		logg.Error("saving run report", "run_id", report.ID, "error", err)
	}

	printReport(report)

	if n := report.Count(processor.StateNotificationFailed); n > 0 {
		return fmt.Errorf("%d customer(s) could not be notified", n)
	}
	return nil
}

// printReport writes the per-customer results as a plain table, kept
// grep-able for cron logs.
func printReport(report processor.RunReport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "CUSTOMER\tNAME\tSTATE\tDETAIL\n")
	for _, r := range report.Results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.CustomerID, r.Name, r.State, r.Detail)
	}
	w.Flush() //nolint:errcheck

	fmt.Printf("\nrun %s: %d paid, %d notified, %d notification-failed, %d skipped, %d unrecoverable\n",
		report.ID,
		report.Count(processor.StatePaid),
		report.Count(processor.StateNotified),
		report.Count(processor.StateNotificationFailed),
		report.Count(processor.StateSkipped),
		report.Count(processor.StateUnrecoverable))
}
