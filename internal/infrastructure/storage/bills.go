package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

const billColumns = `id, type, vendor, amount, original_amount, bill_date, original_date,
	is_refund, amount_lower_delta, amount_upper_delta, identifiers`

// SaveBill inserts or replaces a bill
func (s *Storage) SaveBill(ctx context.Context, bill *billing.Bill) error {
	row, err := newBillRow(bill)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO bills (` + billColumns + `)
	VALUES (:id, :type, :vendor, :amount, :original_amount, :bill_date, :original_date,
		:is_refund, :amount_lower_delta, :amount_upper_delta, :identifiers)
	ON CONFLICT (id) DO UPDATE SET
		type = excluded.type,
		vendor = excluded.vendor,
		amount = excluded.amount,
		original_amount = excluded.original_amount,
		bill_date = excluded.bill_date,
		original_date = excluded.original_date,
		is_refund = excluded.is_refund,
		amount_lower_delta = excluded.amount_lower_delta,
		amount_upper_delta = excluded.amount_upper_delta,
		identifiers = excluded.identifiers
	`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to save bill %s: %w", bill.ID, err)
	}
	return nil
}

// GetBill retrieves a bill by ID
func (s *Storage) GetBill(ctx context.Context, id string) (*billing.Bill, error) {
	var row billRow
	query := s.db.Rebind(`SELECT ` + billColumns + ` FROM bills WHERE id = ?`)
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bill %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bill %s: %w", id, err)
	}
	return row.toBill()
}

// ListBills returns every stored bill ordered by ID
func (s *Storage) ListBills(ctx context.Context) ([]*billing.Bill, error) {
	var rows []billRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+billColumns+` FROM bills ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	return toBills(rows)
}

// FindBills returns bills matching the given filters with pagination
func (s *Storage) FindBills(ctx context.Context, filters BillFilters) (*BillListResult, error) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	var conditions []string
	var args []interface{}
	if filters.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, filters.Type)
	}
	if filters.Vendor != "" {
		conditions = append(conditions, "LOWER(vendor) LIKE ?")
		args = append(args, "%"+strings.ToLower(filters.Vendor)+"%")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, s.db.Rebind("SELECT COUNT(*) FROM bills"+where), args...); err != nil {
		return nil, fmt.Errorf("failed to count bills: %w", err)
	}

	query := s.db.Rebind(`SELECT ` + billColumns + ` FROM bills` + where + ` ORDER BY id LIMIT ? OFFSET ?`)
	var rows []billRow
	if err := s.db.SelectContext(ctx, &rows, query, append(args, filters.Limit, filters.Offset)...); err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}

	bills, err := toBills(rows)
	if err != nil {
		return nil, err
	}

	return &BillListResult{
		Bills:      bills,
		TotalCount: total,
		Limit:      filters.Limit,
		Offset:     filters.Offset,
	}, nil
}

func toBills(rows []billRow) ([]*billing.Bill, error) {
	bills := make([]*billing.Bill, 0, len(rows))
	for _, row := range rows {
		b, err := row.toBill()
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, nil
}
