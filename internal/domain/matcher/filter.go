package matcher

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

// FindCandidates returns the operations that could correspond to bill.
//
// An operation is a candidate when it lies inside both the date and the
// amount windows, or when its label matches one of the identifiers. In both
// cases it must move money in the searched direction, must not already be
// linked to the bill, must satisfy the category
// policy and, for debit searches, must have enough reimbursement capacity
// left to absorb the bill.
func FindCandidates(bill *billing.Bill, ops []*billing.Operation, opts Options) ([]Candidate, error) {
	window, err := ComputeWindow(bill, opts)
	if err != nil {
		return nil, err
	}

	target := OperationAmount(bill, opts.Credit)
	targetDate := OperationDate(bill, opts.Credit)
	identifiers := NormalizeIdentifiers(bill.Identifiers, opts.Identifiers)
	needed := bill.ReimbursementAmount()

	var candidates []Candidate
	for _, op := range ops {
		if op == nil {
			continue
		}
		if !rightDirection(op, opts.Credit) || LinkedToBill(op, bill.ID, opts.Credit) {
			continue
		}
		if !categoryAllowed(bill, op, opts) {
			continue
		}

		reimbursed := TotalReimbursed(op)
		remaining := op.Amount.Abs().Sub(reimbursed)
		if !opts.Credit && !hasCapacity(remaining, needed) {
			continue
		}

		var path Path
		switch {
		case window.Contains(op):
			path = PathWindow
		case MatchesIdentifiers(op.Label, identifiers, opts.IdentifierDistance):
			path = PathIdentifier
		default:
			continue
		}

		candidates = append(candidates, newCandidate(op, path, target, targetDate, reimbursed, remaining))
	}
	return candidates, nil
}

func newCandidate(op *billing.Operation, path Path, target decimal.Decimal, targetDate time.Time, reimbursed, remaining decimal.Decimal) Candidate {
	return Candidate{
		Operation:  op,
		Path:       path,
		AmountDiff: op.Amount.Sub(target).Abs(),
		DateDiff:   absDuration(billing.DateOf(op.Date).Sub(targetDate)),
		Reimbursed: reimbursed,
		Remaining:  remaining,
	}
}

// rightDirection reports whether op moves money the way the search expects.
func rightDirection(op *billing.Operation, credit bool) bool {
	if credit {
		return op.Amount.IsPositive()
	}
	return op.Amount.IsNegative()
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
