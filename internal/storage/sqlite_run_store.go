package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/voltgrid/billnotify/internal/processor"
)

// SQLiteRunStore implements RunStore backed by SQLite.
type SQLiteRunStore struct {
	db *sql.DB
}

// NewSQLiteRunStore returns a new SQLiteRunStore.
func NewSQLiteRunStore(db *sql.DB) *SQLiteRunStore {
	return &SQLiteRunStore{db: db}
}

// SaveRun inserts the run and its per-customer results in one transaction.
func (s *SQLiteRunStore) SaveRun(ctx context.Context, report processor.RunReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at)
		VALUES (?, ?, ?)`,
		report.ID, report.StartedAt, report.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for _, r := range report.Results {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_results (run_id, customer_id, customer_name, state, detail)
			VALUES (?, ?, ?, ?, ?)`,
			report.ID, r.CustomerID, r.Name, string(r.State), r.Detail,
		)
		if err != nil {
			return fmt.Errorf("inserting run result for customer %d: %w", r.CustomerID, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent run summaries ordered by start time
// descending.
func (s *SQLiteRunStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.started_at, r.finished_at,
		       COUNT(rr.id),
		       COALESCE(SUM(rr.state = 'paid'), 0),
		       COALESCE(SUM(rr.state = 'notified'), 0),
		       COALESCE(SUM(rr.state = 'notification-failed'), 0),
		       COALESCE(SUM(rr.state = 'skipped'), 0),
		       COALESCE(SUM(rr.state = 'unrecoverable'), 0)
		FROM runs r
		LEFT JOIN run_results rr ON rr.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var summaries []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.ID, &s.StartedAt, &s.FinishedAt, &s.Total,
			&s.Paid, &s.Notified, &s.NotificationFailed, &s.Skipped, &s.Unrecoverable); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run rows: %w", err)
	}
	return summaries, nil
}

// GetRun returns one run and its results, or nil when the id is unknown.
func (s *SQLiteRunStore) GetRun(ctx context.Context, id string) (*RunDetail, error) {
	var detail RunDetail
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at FROM runs WHERE id = ?`, id).
		Scan(&detail.ID, &detail.StartedAt, &detail.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %q: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT customer_id, customer_name, state, detail
		FROM run_results
		WHERE run_id = ?
		ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("querying run results: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var r processor.CustomerResult
		var state string
		if err := rows.Scan(&r.CustomerID, &r.Name, &state, &r.Detail); err != nil {
			return nil, fmt.Errorf("scanning run result row: %w", err)
		}
		r.State = processor.State(state)
		detail.Results = append(detail.Results, r)
		switch r.State {
		case processor.StatePaid:
			detail.Paid++
		case processor.StateNotified:
			detail.Notified++
		case processor.StateNotificationFailed:
			detail.NotificationFailed++
		case processor.StateSkipped:
			detail.Skipped++
		case processor.StateUnrecoverable:
			detail.Unrecoverable++
		}
		detail.Total++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run result rows: %w", err)
	}
	return &detail, nil
}
