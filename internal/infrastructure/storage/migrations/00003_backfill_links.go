package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upBackfillLinks, downBackfillLinks)
}

// upBackfillLinks creates link rows for reimbursements and credit bill ids that
// were imported before the links table existed, so the link history matches
// what the operations already record.
func upBackfillLinks(ctx context.Context, tx *sql.Tx) error {
	var pending int
	err := tx.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM reimbursements) + (SELECT COUNT(*) FROM operation_bills)
	`).Scan(&pending)
	if err != nil {
		return err
	}

	if pending == 0 {
		// Fresh install, nothing to backfill
		return nil
	}

	// One debit link per (bill, operation); the first reimbursement row wins.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO links (id, run_id, bill_id, operation_id, amount, kind, created_at)
		SELECT 'backfill-debit-' || r.operation_id || '-' || r.seq, '', r.bill_id, r.operation_id,
		       r.amount, 'debit', CURRENT_TIMESTAMP
		FROM reimbursements r
		WHERE r.seq = (
			SELECT MIN(r2.seq) FROM reimbursements r2
			WHERE r2.operation_id = r.operation_id AND r2.bill_id = r.bill_id
		)
		AND NOT EXISTS (
			SELECT 1 FROM links l
			WHERE l.bill_id = r.bill_id AND l.operation_id = r.operation_id AND l.kind = 'debit'
		)
	`); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO links (id, run_id, bill_id, operation_id, amount, kind, created_at)
		SELECT 'backfill-credit-' || ob.operation_id || '-' || ob.seq, '', ob.bill_id, ob.operation_id,
		       COALESCE(b.amount, b.original_amount, '0'), 'credit', CURRENT_TIMESTAMP
		FROM operation_bills ob
		LEFT JOIN bills b ON b.id = ob.bill_id
		WHERE ob.seq = (
			SELECT MIN(ob2.seq) FROM operation_bills ob2
			WHERE ob2.operation_id = ob.operation_id AND ob2.bill_id = ob.bill_id
		)
		AND NOT EXISTS (
			SELECT 1 FROM links l
			WHERE l.bill_id = ob.bill_id AND l.operation_id = ob.operation_id AND l.kind = 'credit'
		)
	`)
	return err
}

// downBackfillLinks removes only the rows this migration created.
func downBackfillLinks(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM links WHERE id LIKE 'backfill-%'`)
	return err
}
