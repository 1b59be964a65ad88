package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/voltgrid/billnotify/internal/config"
	"github.com/voltgrid/billnotify/internal/eventbus"
	"github.com/voltgrid/billnotify/internal/logger"
	"github.com/voltgrid/billnotify/internal/metrics"
	"github.com/voltgrid/billnotify/internal/processor"
	"github.com/voltgrid/billnotify/internal/scheduler"
	"github.com/voltgrid/billnotify/internal/server"
	"github.com/voltgrid/billnotify/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the billing scheduler",
	Long: `Serve the roster, run reports and metrics over HTTP. When
BILLNOTIFY_CRON is set, billing runs fire on that schedule.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP server port (overrides PORT env var)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}

	logg := logger.New(cfg.LogFile, cfg.SlogLevel())

	customers, err := storage.LoadCustomers(cfg.CustomerFile)
	if err != nil {
		return err
	}

	db, err := storage.NewSQLiteDB(cfg.DBPath(), logg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck
	runStore := storage.NewSQLiteRunStore(db)

	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)

	bus := eventbus.New(0, logg)
	defer bus.Close()
	bus.Subscribe(recorder.Listener())
	bus.Subscribe(func(e eventbus.Event) {
		logg.Debug("billing event", "event_type", e.Type, "payload", e.Payload)
	})

	proc := buildProcessor(cfg, logg, bus)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	trigger := func(runCtx context.Context) processor.RunReport {
		return proc.Run(runCtx, customers)
	}

	if cfg.Cron != "" {
		sched, err := scheduler.New(cfg.Cron, func() {
			report := trigger(ctx)
			if err := runStore.SaveRun(ctx, report); err != nil {
				logg.Error("saving scheduled run report", "run_id", report.ID, "error", err)
			}
		}, logg)
		if err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				logg.Warn("stopping scheduler", "error", err)
			}
		}()
	}

	srv := server.New(server.Config{
		Customers: customers,
		RunStore:  runStore,
		Trigger:   trigger,
		Registry:  registry,
		Port:      cfg.Port,
		Logger:    logg,
	})

	fmt.Fprintf(os.Stderr, "billnotify HTTP server running on http://localhost:%d\n", cfg.Port)
	return srv.Run(ctx)
}
