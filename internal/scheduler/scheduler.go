// Package scheduler triggers recurring billing runs using gocron.
package scheduler

import (
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs the billing job on a cron schedule. Overlapping runs are
// not started: a tick that fires while a run is still in flight is
// rescheduled.
type Scheduler struct {
	cron   gocron.Scheduler
	logger *slog.Logger
}

// New creates a Scheduler executing job on cronExpr (standard five-field
// cron syntax).
func New(cronExpr string, job func(), logger *slog.Logger) (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}

	_, err = cron.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(job),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("scheduling billing run %q: %w", cronExpr, err)
	}

	return &Scheduler{cron: cron, logger: logger}, nil
}

// Start begins firing the schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("billing scheduler started")
}

// Stop shuts down the gocron scheduler.
func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}
