package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bill-linker/internal/application/linker"
	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

const linkColumns = `id, run_id, bill_id, operation_id, amount, kind, created_at`

// SaveChange stores a link and the operations it touched in one transaction
func (s *Storage) SaveChange(ctx context.Context, change linker.Change) error {
	link := change.Link
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, op := range change.Operations {
			if err := saveOperationTx(ctx, tx, op); err != nil {
				return err
			}
		}

		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO links (`+linkColumns+`)
			VALUES (:id, :run_id, :bill_id, :operation_id, :amount, :kind, :created_at)
		`, newLinkRow(link)); err != nil {
			return fmt.Errorf("failed to save link %s: %w", link.ID, err)
		}
		return nil
	})
}

// ListLinks returns links matching the filters, newest first
func (s *Storage) ListLinks(ctx context.Context, filters LinkFilters) ([]billing.Link, error) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	var conditions []string
	var args []interface{}
	if filters.BillID != "" {
		conditions = append(conditions, "bill_id = ?")
		args = append(args, filters.BillID)
	}
	if filters.OperationID != "" {
		conditions = append(conditions, "operation_id = ?")
		args = append(args, filters.OperationID)
	}
	if filters.RunID != "" {
		conditions = append(conditions, "run_id = ?")
		args = append(args, filters.RunID)
	}

	query := `SELECT ` + linkColumns + ` FROM links`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, filters.Limit, filters.Offset)

	var rows []linkRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	links := make([]billing.Link, 0, len(rows))
	for _, row := range rows {
		links = append(links, row.toLink())
	}
	return links, nil
}

// GetStats returns aggregate counts
func (s *Storage) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		dest  *int
		query string
	}{
		{&stats.Bills, "SELECT COUNT(*) FROM bills"},
		{&stats.Operations, "SELECT COUNT(*) FROM operations"},
		{&stats.Links, "SELECT COUNT(*) FROM links"},
		{&stats.DebitLinks, "SELECT COUNT(*) FROM links WHERE kind = 'debit'"},
		{&stats.CreditLinks, "SELECT COUNT(*) FROM links WHERE kind = 'credit'"},
		{&stats.LinkedBills, "SELECT COUNT(DISTINCT bill_id) FROM links"},
		{&stats.Runs, "SELECT COUNT(*) FROM link_runs"},
	}
	for _, c := range counts {
		if err := s.db.GetContext(ctx, c.dest, c.query); err != nil {
			return nil, fmt.Errorf("failed to compute stats: %w", err)
		}
	}

	// Amounts are decimal text, so they are summed here rather than in SQL.
	var amounts []decimal.Decimal
	if err := s.db.SelectContext(ctx, &amounts, "SELECT amount FROM links WHERE kind = 'debit'"); err != nil {
		return nil, fmt.Errorf("failed to sum linked amounts: %w", err)
	}
	stats.LinkedAmount = decimal.Sum(decimal.Zero, amounts...)

	var started []time.Time
	if err := s.db.SelectContext(ctx, &started, "SELECT started_at FROM link_runs ORDER BY started_at DESC LIMIT 1"); err != nil {
		return nil, fmt.Errorf("failed to load last run: %w", err)
	}
	if len(started) > 0 {
		stats.LastRunStarted = &started[0]
	}

	return stats, nil
}
