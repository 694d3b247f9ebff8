package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/eshaffer321/bill-linker/internal/application/linker"
	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

const operationColumns = `id, label, amount, op_date, category_id, account_id`

// idChunk bounds the IN lists used to load child rows.
const idChunk = 500

// SaveOperations inserts or replaces operations, reimbursements included
func (s *Storage) SaveOperations(ctx context.Context, ops []*billing.Operation) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, op := range ops {
			if err := saveOperationTx(ctx, tx, op); err != nil {
				return err
			}
		}
		return nil
	})
}

// ImportOperations upserts bank records. Link state already stored for an
// operation is kept unless the record carries reimbursements or bill ids of
// its own.
func (s *Storage) ImportOperations(ctx context.Context, ops []*billing.Operation) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, op := range ops {
			if err := saveOperationRowTx(ctx, tx, op); err != nil {
				return err
			}
			if len(op.Reimbursements) > 0 {
				if err := replaceReimbursementsTx(ctx, tx, op); err != nil {
					return err
				}
			}
			if len(op.BillIDs) > 0 {
				if err := replaceBillIDsTx(ctx, tx, op); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// saveOperationTx upserts the operation row and rewrites its child rows.
func saveOperationTx(ctx context.Context, tx *sqlx.Tx, op *billing.Operation) error {
	if err := saveOperationRowTx(ctx, tx, op); err != nil {
		return err
	}
	if err := replaceReimbursementsTx(ctx, tx, op); err != nil {
		return err
	}
	return replaceBillIDsTx(ctx, tx, op)
}

func saveOperationRowTx(ctx context.Context, tx *sqlx.Tx, op *billing.Operation) error {
	query := `
	INSERT INTO operations (` + operationColumns + `)
	VALUES (:id, :label, :amount, :op_date, :category_id, :account_id)
	ON CONFLICT (id) DO UPDATE SET
		label = excluded.label,
		amount = excluded.amount,
		op_date = excluded.op_date,
		category_id = excluded.category_id,
		account_id = excluded.account_id
	`
	if _, err := tx.NamedExecContext(ctx, query, newOperationRow(op)); err != nil {
		return fmt.Errorf("failed to save operation %s: %w", op.ID, err)
	}
	return nil
}

func replaceReimbursementsTx(ctx context.Context, tx *sqlx.Tx, op *billing.Operation) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM reimbursements WHERE operation_id = ?"), op.ID); err != nil {
		return fmt.Errorf("failed to clear reimbursements of %s: %w", op.ID, err)
	}
	for i, r := range op.Reimbursements {
		row := reimbursementRow{
			OperationID:       op.ID,
			Seq:               i,
			BillID:            r.BillID,
			Amount:            r.Amount,
			CreditOperationID: r.CreditOperationID,
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO reimbursements (operation_id, seq, bill_id, amount, credit_operation_id)
			VALUES (:operation_id, :seq, :bill_id, :amount, :credit_operation_id)
		`, row); err != nil {
			return fmt.Errorf("failed to save reimbursement of %s: %w", op.ID, err)
		}
	}
	return nil
}

func replaceBillIDsTx(ctx context.Context, tx *sqlx.Tx, op *billing.Operation) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM operation_bills WHERE operation_id = ?"), op.ID); err != nil {
		return fmt.Errorf("failed to clear bill ids of %s: %w", op.ID, err)
	}
	for i, billID := range op.BillIDs {
		row := operationBillRow{OperationID: op.ID, Seq: i, BillID: billID}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO operation_bills (operation_id, seq, bill_id)
			VALUES (:operation_id, :seq, :bill_id)
		`, row); err != nil {
			return fmt.Errorf("failed to save bill id of %s: %w", op.ID, err)
		}
	}
	return nil
}

// GetOperation retrieves an operation by ID
func (s *Storage) GetOperation(ctx context.Context, id string) (*billing.Operation, error) {
	var row operationRow
	query := s.db.Rebind(`SELECT ` + operationColumns + ` FROM operations WHERE id = ?`)
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("operation %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get operation %s: %w", id, err)
	}

	ops, err := s.hydrate(ctx, []operationRow{row})
	if err != nil {
		return nil, err
	}
	return ops[0], nil
}

// ListOperations returns operations inside the filter, ordered by date. A
// zero From or To leaves that side open. Operations already linked to one of
// filter.BillIDs are returned even when they fall outside the other bounds.
func (s *Storage) ListOperations(ctx context.Context, filter linker.OperationFilter) ([]*billing.Operation, error) {
	var conditions []string
	var args []interface{}
	if !filter.From.IsZero() {
		conditions = append(conditions, "op_date >= ?")
		args = append(args, billing.FormatDate(filter.From))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "op_date <= ?")
		args = append(args, billing.FormatDate(filter.To))
	}
	if filter.AccountID != "" {
		conditions = append(conditions, "account_id = ?")
		args = append(args, filter.AccountID)
	}

	query := `SELECT ` + operationColumns + ` FROM operations`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY op_date, id"

	var rows []operationRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}

	if len(conditions) > 0 && len(filter.BillIDs) > 0 {
		linked, err := s.linkedOperationRows(ctx, filter.BillIDs, rows)
		if err != nil {
			return nil, err
		}
		if len(linked) > 0 {
			rows = append(rows, linked...)
			sort.SliceStable(rows, func(i, j int) bool {
				if rows[i].Date != rows[j].Date {
					return rows[i].Date < rows[j].Date
				}
				return rows[i].ID < rows[j].ID
			})
		}
	}
	return s.hydrate(ctx, rows)
}

// linkedOperationRows loads the operations that carry a link to one of
// billIDs and are not already in have.
func (s *Storage) linkedOperationRows(ctx context.Context, billIDs []string, have []operationRow) ([]operationRow, error) {
	seen := make(map[string]bool, len(have))
	for _, row := range have {
		seen[row.ID] = true
	}

	var missing []string
	for start := 0; start < len(billIDs); start += idChunk {
		end := min(start+idChunk, len(billIDs))
		chunk := billIDs[start:end]

		query, args, err := sqlx.In(`
			SELECT operation_id FROM reimbursements WHERE bill_id IN (?)
			UNION
			SELECT operation_id FROM operation_bills WHERE bill_id IN (?)
		`, chunk, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to build linked operations query: %w", err)
		}
		var ids []string
		if err := s.db.SelectContext(ctx, &ids, s.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("failed to find linked operations: %w", err)
		}
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				missing = append(missing, id)
			}
		}
	}

	var out []operationRow
	for start := 0; start < len(missing); start += idChunk {
		end := min(start+idChunk, len(missing))
		var rows []operationRow
		if err := s.selectIn(ctx, &rows, `SELECT `+operationColumns+` FROM operations WHERE id IN (?)`, missing[start:end]); err != nil {
			return nil, fmt.Errorf("failed to load linked operations: %w", err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

// hydrate converts rows and attaches their reimbursements and credit bill ids.
func (s *Storage) hydrate(ctx context.Context, rows []operationRow) ([]*billing.Operation, error) {
	ops := make([]*billing.Operation, 0, len(rows))
	byID := make(map[string]*billing.Operation, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		op, err := row.toOperation()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		byID[op.ID] = op
		ids = append(ids, op.ID)
	}

	for start := 0; start < len(ids); start += idChunk {
		end := min(start+idChunk, len(ids))
		chunk := ids[start:end]

		var reimbursements []reimbursementRow
		if err := s.selectIn(ctx, &reimbursements, `
			SELECT operation_id, seq, bill_id, amount, credit_operation_id
			FROM reimbursements WHERE operation_id IN (?) ORDER BY operation_id, seq
		`, chunk); err != nil {
			return nil, fmt.Errorf("failed to load reimbursements: %w", err)
		}
		for _, r := range reimbursements {
			op := byID[r.OperationID]
			op.Reimbursements = append(op.Reimbursements, billing.Reimbursement{
				BillID:            r.BillID,
				Amount:            r.Amount,
				CreditOperationID: r.CreditOperationID,
			})
		}

		var billIDs []operationBillRow
		if err := s.selectIn(ctx, &billIDs, `
			SELECT operation_id, seq, bill_id
			FROM operation_bills WHERE operation_id IN (?) ORDER BY operation_id, seq
		`, chunk); err != nil {
			return nil, fmt.Errorf("failed to load bill ids: %w", err)
		}
		for _, b := range billIDs {
			op := byID[b.OperationID]
			op.BillIDs = append(op.BillIDs, b.BillID)
		}
	}

	return ops, nil
}

func (s *Storage) selectIn(ctx context.Context, dest interface{}, query string, ids []string) error {
	query, args, err := sqlx.In(query, ids)
	if err != nil {
		return err
	}
	return s.db.SelectContext(ctx, dest, s.db.Rebind(query), args...)
}
