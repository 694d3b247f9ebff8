package linker

import (
	"context"
	"time"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
	"github.com/eshaffer321/bill-linker/internal/domain/matcher"
)

// BillSource lists the bills to reconcile.
type BillSource interface {
	ListBills(ctx context.Context) ([]*billing.Bill, error)
}

// OperationFilter narrows the operations loaded for a run. Zero values
// mean "no bound".
//
// Operations already linked to one of BillIDs, through a reimbursement or
// a credit bill id, are returned even when they fall outside the other
// bounds: the linker reads them to tell which bills are already linked.
type OperationFilter struct {
	From      time.Time
	To        time.Time
	AccountID string
	BillIDs   []string
}

// OperationSource lists bank operations.
type OperationSource interface {
	ListOperations(ctx context.Context, filter OperationFilter) ([]*billing.Operation, error)
}

// OperationWindow returns the smallest filter covering the date windows of
// every well-formed bill in both debit and credit directions, plus the ids
// of every bill. Identifier matches are not bounded by date, so any
// identifier leaves the dates open.
func OperationWindow(bills []*billing.Bill, opts matcher.Options) OperationFilter {
	var f OperationFilter
	for _, bill := range bills {
		if bill != nil && bill.ID != "" {
			f.BillIDs = append(f.BillIDs, bill.ID)
		}
	}
	if len(opts.Identifiers) > 0 {
		return f
	}
	for _, bill := range bills {
		if bill.Validate() != nil {
			continue
		}
		if len(bill.Identifiers) > 0 {
			f.From, f.To = time.Time{}, time.Time{}
			return f
		}
		for _, credit := range []bool{false, true} {
			r, err := matcher.ComputeDateRange(bill, opts.WithCredit(credit))
			if err != nil {
				continue
			}
			if f.From.IsZero() || r.Min.Before(f.From) {
				f.From = r.Min
			}
			if r.Max.After(f.To) {
				f.To = r.Max
			}
		}
	}
	return f
}

// ReferencesAny reports whether op carries a reimbursement for, or a credit
// link to, one of billIDs.
func ReferencesAny(op *billing.Operation, billIDs []string) bool {
	for _, id := range billIDs {
		if matcher.LinkedToBill(op, id, false) || matcher.LinkedToBill(op, id, true) {
			return true
		}
	}
	return false
}
