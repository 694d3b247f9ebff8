// Package importer loads bills and bank operations from JSON documents into
// a repository.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

// Document is the import file layout. Amounts may be JSON numbers or
// strings; dates are YYYY-MM-DD.
type Document struct {
	Bills      []BillRecord      `json:"bills"`
	Operations []OperationRecord `json:"operations"`
}

// BillRecord is one bill as written in an import file.
type BillRecord struct {
	ID                string              `json:"id"`
	Type              string              `json:"type"`
	Vendor            string              `json:"vendor"`
	Amount            decimal.NullDecimal `json:"amount"`
	OriginalAmount    decimal.NullDecimal `json:"originalAmount"`
	Date              string              `json:"date"`
	OriginalDate      string              `json:"originalDate"`
	IsRefund          bool                `json:"isRefund"`
	MatchingCriterias *CriteriaRecord     `json:"matchingCriterias,omitempty"`
	Identifiers       []string            `json:"identifiers,omitempty"`
}

// CriteriaRecord carries per-bill amount deltas.
type CriteriaRecord struct {
	AmountLowerDelta decimal.Decimal `json:"amountLowerDelta"`
	AmountUpperDelta decimal.Decimal `json:"amountUpperDelta"`
}

// OperationRecord is one bank operation as written in an import file.
type OperationRecord struct {
	ID             string                `json:"id"`
	Label          string                `json:"label"`
	Amount         decimal.Decimal       `json:"amount"`
	Date           string                `json:"date"`
	CategoryID     string                `json:"categoryId"`
	AccountID      string                `json:"accountId"`
	Reimbursements []ReimbursementRecord `json:"reimbursements,omitempty"`
	Bills          []string              `json:"bills,omitempty"`
}

// ReimbursementRecord is a bill's claim on an operation.
type ReimbursementRecord struct {
	BillID      string          `json:"billId"`
	Amount      decimal.Decimal `json:"amount"`
	OperationID string          `json:"operationId,omitempty"`
}

// Store is the part of the repository the importer writes to.
type Store interface {
	SaveBill(ctx context.Context, bill *billing.Bill) error
	ImportOperations(ctx context.Context, ops []*billing.Operation) error
}

// Result counts what an import wrote.
type Result struct {
	Bills      int
	Operations int
}

// Importer writes documents into a Store.
type Importer struct {
	store  Store
	logger *slog.Logger
}

// New creates an importer.
func New(store Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, logger: logger}
}

// Decode reads a Document from r. Unknown fields are ignored.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode import document: %w", err)
	}
	return &doc, nil
}

// ImportFile decodes the file at path and imports it.
func (i *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return i.Import(ctx, doc)
}

// Import converts and stores every record. The whole document is validated
// before anything is written, so a bad record leaves the store untouched.
//
// Bills missing an amount or a date are stored as is; the linker reports
// them as malformed.
func (i *Importer) Import(ctx context.Context, doc *Document) (*Result, error) {
	bills := make([]*billing.Bill, 0, len(doc.Bills))
	for n, rec := range doc.Bills {
		b, err := rec.toBill()
		if err != nil {
			return nil, fmt.Errorf("bill #%d: %w", n, err)
		}
		bills = append(bills, b)
	}

	ops := make([]*billing.Operation, 0, len(doc.Operations))
	for n, rec := range doc.Operations {
		op, err := rec.toOperation()
		if err != nil {
			return nil, fmt.Errorf("operation #%d: %w", n, err)
		}
		ops = append(ops, op)
	}

	for _, b := range bills {
		if err := i.store.SaveBill(ctx, b); err != nil {
			return nil, err
		}
	}
	if len(ops) > 0 {
		if err := i.store.ImportOperations(ctx, ops); err != nil {
			return nil, err
		}
	}

	i.logger.Info("Import complete", "bills", len(bills), "operations", len(ops))
	return &Result{Bills: len(bills), Operations: len(ops)}, nil
}

func (r BillRecord) toBill() (*billing.Bill, error) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		return nil, fmt.Errorf("missing id")
	}
	date, err := billing.ParseDate(r.Date)
	if err != nil {
		return nil, fmt.Errorf("bill %s: %w", id, err)
	}
	originalDate, err := billing.ParseDate(r.OriginalDate)
	if err != nil {
		return nil, fmt.Errorf("bill %s: %w", id, err)
	}

	b := &billing.Bill{
		ID:             id,
		Type:           r.Type,
		Vendor:         r.Vendor,
		Amount:         r.Amount,
		OriginalAmount: r.OriginalAmount,
		Date:           date,
		OriginalDate:   originalDate,
		IsRefund:       r.IsRefund,
		Identifiers:    r.Identifiers,
	}
	if r.MatchingCriterias != nil {
		b.MatchingCriterias = &billing.MatchingCriterias{
			AmountLowerDelta: r.MatchingCriterias.AmountLowerDelta,
			AmountUpperDelta: r.MatchingCriterias.AmountUpperDelta,
		}
	}
	return b, nil
}

func (r OperationRecord) toOperation() (*billing.Operation, error) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		return nil, fmt.Errorf("missing id")
	}
	if strings.TrimSpace(r.Date) == "" {
		return nil, fmt.Errorf("operation %s: missing date", id)
	}
	date, err := billing.ParseDate(r.Date)
	if err != nil {
		return nil, fmt.Errorf("operation %s: %w", id, err)
	}

	op := &billing.Operation{
		ID:         id,
		Label:      r.Label,
		Amount:     r.Amount,
		Date:       date,
		CategoryID: r.CategoryID,
		AccountID:  r.AccountID,
		BillIDs:    r.Bills,
	}
	for _, re := range r.Reimbursements {
		if re.BillID == "" {
			return nil, fmt.Errorf("operation %s: reimbursement without billId", id)
		}
		op.Reimbursements = append(op.Reimbursements, billing.Reimbursement{
			BillID:            re.BillID,
			Amount:            re.Amount,
			CreditOperationID: re.OperationID,
		})
	}
	return op, nil
}
