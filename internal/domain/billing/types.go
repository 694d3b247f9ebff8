// Package billing holds the bill, operation and link types shared by the
// matcher, the linker and the storage layer.
//
// Amounts use shopspring/decimal so that reimbursement totals never drift
// from the minor-unit values the bank reports. Operation amounts are signed:
// negative for a debit (expense), positive for a credit (income).
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// HealthCostsType is the bill type used for health-expense reimbursements.
const HealthCostsType = "health_costs"

// LinkKind says which side of a bill an operation was linked to.
type LinkKind string

const (
	// LinkDebit links a bill to the expense it reimburses.
	LinkDebit LinkKind = "debit"
	// LinkCredit links a refund bill to the payment received for it.
	LinkCredit LinkKind = "credit"
)

// MatchingCriterias overrides the default amount tolerance for one bill.
type MatchingCriterias struct {
	AmountLowerDelta decimal.Decimal
	AmountUpperDelta decimal.Decimal
}

// Bill is a payable/receivable line item to reconcile against operations.
type Bill struct {
	ID     string
	Type   string
	Vendor string

	Amount         decimal.NullDecimal
	OriginalAmount decimal.NullDecimal

	Date         time.Time // zero when absent
	OriginalDate time.Time // zero when absent

	IsRefund          bool
	MatchingCriterias *MatchingCriterias
	Identifiers       []string
}

// Reimbursement is a partial-amount link recorded on a debit operation.
type Reimbursement struct {
	BillID            string
	Amount            decimal.Decimal
	CreditOperationID string // set once the matching credit is found
}

// Operation is a bank-ledger entry.
type Operation struct {
	ID         string
	Label      string
	Amount     decimal.Decimal
	Date       time.Time
	CategoryID string
	AccountID  string

	Reimbursements []Reimbursement
	BillIDs        []string // bills linked to this operation as a credit
}

// Link is the committed association between one bill and one operation.
type Link struct {
	ID          string
	RunID       string
	BillID      string
	OperationID string
	Amount      decimal.Decimal
	Kind        LinkKind
	CreatedAt   time.Time
}
