package matcher

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

// TotalReimbursed sums the reimbursements already linked to op.
func TotalReimbursed(op *billing.Operation) decimal.Decimal {
	total := decimal.Zero
	if op == nil {
		return total
	}
	for _, r := range op.Reimbursements {
		total = total.Add(r.Amount)
	}
	return total
}

// RemainingCapacity is how much of op can still be reimbursed. Zero or
// negative means op is exhausted.
func RemainingCapacity(op *billing.Operation) decimal.Decimal {
	return op.Amount.Abs().Sub(TotalReimbursed(op))
}

// ReimbursedForBill sums the reimbursements op already carries for billID.
func ReimbursedForBill(op *billing.Operation, billID string) decimal.Decimal {
	total := decimal.Zero
	for _, r := range op.Reimbursements {
		if r.BillID == billID {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// TotalReimbursedForBill sums the reimbursements recorded for billID across
// all operations.
func TotalReimbursedForBill(ops []*billing.Operation, billID string) decimal.Decimal {
	total := decimal.Zero
	for _, op := range ops {
		if op != nil {
			total = total.Add(ReimbursedForBill(op, billID))
		}
	}
	return total
}

// LinkedToBill reports whether op already carries a link to billID on the
// given side.
func LinkedToBill(op *billing.Operation, billID string, credit bool) bool {
	if credit {
		return slices.Contains(op.BillIDs, billID)
	}
	for _, r := range op.Reimbursements {
		if r.BillID == billID {
			return true
		}
	}
	return false
}

func hasCapacity(remaining, needed decimal.Decimal) bool {
	return remaining.IsPositive() && remaining.GreaterThanOrEqual(needed)
}
