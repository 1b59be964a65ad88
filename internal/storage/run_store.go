package storage

import (
	"context"
	"time"

	"github.com/voltgrid/billnotify/internal/processor"
)

// RunSummary is the aggregate view of one billing run.
type RunSummary struct {
	ID                 string    `json:"id"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
	Total              int       `json:"total"`
	Paid               int       `json:"paid"`
	Notified           int       `json:"notified"`
	NotificationFailed int       `json:"notification_failed"`
	Skipped            int       `json:"skipped"`
	Unrecoverable      int       `json:"unrecoverable"`
}

// RunDetail is a run summary plus its per-customer results.
type RunDetail struct {
	RunSummary
	Results []processor.CustomerResult `json:"results"`
}

// RunStore defines the interface for persisting billing-run reports.
type RunStore interface {
	// SaveRun records a completed run and its per-customer results.
	SaveRun(ctx context.Context, report processor.RunReport) error
	// ListRuns returns the most recent run summaries, up to limit.
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	// GetRun returns one run with its per-customer results, or nil when
	// no run has that id.
	GetRun(ctx context.Context, id string) (*RunDetail, error)
}
