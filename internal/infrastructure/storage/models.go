package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// LinkRun represents one reconciliation pass
type LinkRun struct {
	ID           string     `db:"id"`
	StartedAt    time.Time  `db:"started_at"`
	CompletedAt  *time.Time `db:"completed_at"`
	DryRun       bool       `db:"dry_run"`
	Bills        int        `db:"bills_count"`
	Matched      int        `db:"matched"`
	Unmatched    int        `db:"unmatched"`
	Skipped      int        `db:"skipped"`
	Errored      int        `db:"errored"`
	LinksCreated int        `db:"links_created"`
	Status       string     `db:"status"`
	ErrorMessage string     `db:"error_message"`
}

// RunCounts are the totals written when a run completes
type RunCounts struct {
	Bills        int
	Matched      int
	Unmatched    int
	Skipped      int
	Errored      int
	LinksCreated int
}

// BillFilters contains filtering options for listing bills
type BillFilters struct {
	Type   string // optional: filter by bill type
	Vendor string // optional: filter by vendor
	Limit  int    // max results (default 50)
	Offset int    // pagination offset
}

// BillListResult contains paginated bill results
type BillListResult struct {
	Bills      []*billing.Bill
	TotalCount int
	Limit      int
	Offset     int
}

// LinkFilters contains filtering options for listing links
type LinkFilters struct {
	BillID      string
	OperationID string
	RunID       string
	Limit       int
	Offset      int
}

// Stats contains aggregate counts over the store
type Stats struct {
	Bills          int             `json:"bills"`
	LinkedBills    int             `json:"linked_bills"`
	Operations     int             `json:"operations"`
	Links          int             `json:"links"`
	DebitLinks     int             `json:"debit_links"`
	CreditLinks    int             `json:"credit_links"`
	LinkedAmount   decimal.Decimal `json:"linked_amount"`
	Runs           int             `json:"runs"`
	LastRunStarted *time.Time      `json:"last_run_started,omitempty"`
}

// Row types map table columns. Dates are kept as YYYY-MM-DD text and
// amounts as decimal text so both drivers round-trip them exactly.

type billRow struct {
	ID             string              `db:"id"`
	Type           string              `db:"type"`
	Vendor         string              `db:"vendor"`
	Amount         decimal.NullDecimal `db:"amount"`
	OriginalAmount decimal.NullDecimal `db:"original_amount"`
	Date           string              `db:"bill_date"`
	OriginalDate   string              `db:"original_date"`
	IsRefund       bool                `db:"is_refund"`
	LowerDelta     decimal.NullDecimal `db:"amount_lower_delta"`
	UpperDelta     decimal.NullDecimal `db:"amount_upper_delta"`
	Identifiers    string              `db:"identifiers"`
}

type operationRow struct {
	ID         string          `db:"id"`
	Label      string          `db:"label"`
	Amount     decimal.Decimal `db:"amount"`
	Date       string          `db:"op_date"`
	CategoryID string          `db:"category_id"`
	AccountID  string          `db:"account_id"`
}

type reimbursementRow struct {
	OperationID       string          `db:"operation_id"`
	Seq               int             `db:"seq"`
	BillID            string          `db:"bill_id"`
	Amount            decimal.Decimal `db:"amount"`
	CreditOperationID string          `db:"credit_operation_id"`
}

type operationBillRow struct {
	OperationID string `db:"operation_id"`
	Seq         int    `db:"seq"`
	BillID      string `db:"bill_id"`
}

type linkRow struct {
	ID          string          `db:"id"`
	RunID       string          `db:"run_id"`
	BillID      string          `db:"bill_id"`
	OperationID string          `db:"operation_id"`
	Amount      decimal.Decimal `db:"amount"`
	Kind        string          `db:"kind"`
	CreatedAt   time.Time       `db:"created_at"`
}

func newBillRow(b *billing.Bill) (billRow, error) {
	ids := b.Identifiers
	if ids == nil {
		ids = []string{}
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return billRow{}, fmt.Errorf("failed to encode identifiers: %w", err)
	}

	row := billRow{
		ID:             b.ID,
		Type:           b.Type,
		Vendor:         b.Vendor,
		Amount:         b.Amount,
		OriginalAmount: b.OriginalAmount,
		Date:           billing.FormatDate(b.Date),
		OriginalDate:   billing.FormatDate(b.OriginalDate),
		IsRefund:       b.IsRefund,
		Identifiers:    string(encoded),
	}
	if b.MatchingCriterias != nil {
		row.LowerDelta = decimal.NewNullDecimal(b.MatchingCriterias.AmountLowerDelta)
		row.UpperDelta = decimal.NewNullDecimal(b.MatchingCriterias.AmountUpperDelta)
	}
	return row, nil
}

func (r billRow) toBill() (*billing.Bill, error) {
	date, err := billing.ParseDate(r.Date)
	if err != nil {
		return nil, fmt.Errorf("bill %s: %w", r.ID, err)
	}
	originalDate, err := billing.ParseDate(r.OriginalDate)
	if err != nil {
		return nil, fmt.Errorf("bill %s: %w", r.ID, err)
	}

	b := &billing.Bill{
		ID:             r.ID,
		Type:           r.Type,
		Vendor:         r.Vendor,
		Amount:         r.Amount,
		OriginalAmount: r.OriginalAmount,
		Date:           date,
		OriginalDate:   originalDate,
		IsRefund:       r.IsRefund,
	}
	if r.LowerDelta.Valid || r.UpperDelta.Valid {
		b.MatchingCriterias = &billing.MatchingCriterias{
			AmountLowerDelta: r.LowerDelta.Decimal,
			AmountUpperDelta: r.UpperDelta.Decimal,
		}
	}
	if r.Identifiers != "" {
		if err := json.Unmarshal([]byte(r.Identifiers), &b.Identifiers); err != nil {
			return nil, fmt.Errorf("bill %s: failed to decode identifiers: %w", r.ID, err)
		}
		if len(b.Identifiers) == 0 {
			b.Identifiers = nil
		}
	}
	return b, nil
}

func newOperationRow(op *billing.Operation) operationRow {
	return operationRow{
		ID:         op.ID,
		Label:      op.Label,
		Amount:     op.Amount,
		Date:       billing.FormatDate(op.Date),
		CategoryID: op.CategoryID,
		AccountID:  op.AccountID,
	}
}

func (r operationRow) toOperation() (*billing.Operation, error) {
	date, err := billing.ParseDate(r.Date)
	if err != nil {
		return nil, fmt.Errorf("operation %s: %w", r.ID, err)
	}
	return &billing.Operation{
		ID:         r.ID,
		Label:      r.Label,
		Amount:     r.Amount,
		Date:       date,
		CategoryID: r.CategoryID,
		AccountID:  r.AccountID,
	}, nil
}

func newLinkRow(l billing.Link) linkRow {
	return linkRow{
		ID:          l.ID,
		RunID:       l.RunID,
		BillID:      l.BillID,
		OperationID: l.OperationID,
		Amount:      l.Amount,
		Kind:        string(l.Kind),
		CreatedAt:   l.CreatedAt.UTC(),
	}
}

func (r linkRow) toLink() billing.Link {
	return billing.Link{
		ID:          r.ID,
		RunID:       r.RunID,
		BillID:      r.BillID,
		OperationID: r.OperationID,
		Amount:      r.Amount,
		Kind:        billing.LinkKind(r.Kind),
		CreatedAt:   r.CreatedAt,
	}
}
