package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const runColumns = `id, started_at, completed_at, dry_run, bills_count, matched, unmatched,
	skipped, errored, links_created, status, error_message`

// StartLinkRun records the start of a run
func (s *Storage) StartLinkRun(ctx context.Context, run *LinkRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.StartedAt = run.StartedAt.UTC()
	if run.Status == "" {
		run.Status = RunStatusRunning
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO link_runs (`+runColumns+`)
		VALUES (:id, :started_at, :completed_at, :dry_run, :bills_count, :matched, :unmatched,
			:skipped, :errored, :links_created, :status, :error_message)
	`, run)
	if err != nil {
		return fmt.Errorf("failed to start link run: %w", err)
	}
	return nil
}

// CompleteLinkRun records the outcome of a run. A non-nil runErr marks it failed.
func (s *Storage) CompleteLinkRun(ctx context.Context, runID string, counts RunCounts, runErr error) error {
	status := RunStatusCompleted
	message := ""
	if runErr != nil {
		status = RunStatusFailed
		message = runErr.Error()
	}

	query := s.db.Rebind(`
		UPDATE link_runs
		SET completed_at = ?, bills_count = ?, matched = ?, unmatched = ?, skipped = ?,
			errored = ?, links_created = ?, status = ?, error_message = ?
		WHERE id = ?
	`)
	res, err := s.db.ExecContext(ctx, query,
		time.Now().UTC(),
		counts.Bills,
		counts.Matched,
		counts.Unmatched,
		counts.Skipped,
		counts.Errored,
		counts.LinksCreated,
		status,
		message,
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete link run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("link run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// ListLinkRuns returns recent runs, newest first
func (s *Storage) ListLinkRuns(ctx context.Context, limit int) ([]LinkRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []LinkRun
	query := s.db.Rebind(`SELECT ` + runColumns + ` FROM link_runs ORDER BY started_at DESC, id LIMIT ?`)
	if err := s.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list link runs: %w", err)
	}
	return runs, nil
}

// GetLinkRun retrieves a run by ID
func (s *Storage) GetLinkRun(ctx context.Context, id string) (*LinkRun, error) {
	var run LinkRun
	query := s.db.Rebind(`SELECT ` + runColumns + ` FROM link_runs WHERE id = ?`)
	if err := s.db.GetContext(ctx, &run, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("link run %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get link run %s: %w", id, err)
	}
	return &run, nil
}
