package matcher

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

// ErrZeroReferenceAmount is returned when a bill's window would collapse to
// the single amount 0. Such bills are left unmatched rather than linked to
// whatever zero-amount operation happens to be nearby.
var ErrZeroReferenceAmount = errors.New("zero reference amount yields an empty amount window")

// DateRange is an inclusive calendar-day range.
type DateRange struct {
	Min time.Time
	Max time.Time
}

// Contains reports whether t falls on a day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := billing.DateOf(t)
	return !d.Before(r.Min) && !d.After(r.Max)
}

// AmountRange is an inclusive amount range with Min <= Max.
type AmountRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Contains reports whether amount lies inside the range.
func (r AmountRange) Contains(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(r.Min) && amount.LessThanOrEqual(r.Max)
}

// Width is Max - Min.
func (r AmountRange) Width() decimal.Decimal {
	return r.Max.Sub(r.Min)
}

// Window is the acceptable date and amount bounds derived from one bill.
type Window struct {
	DateRange
	AmountRange
}

// Contains reports whether op lies inside both ranges.
func (w Window) Contains(op *billing.Operation) bool {
	return w.DateRange.Contains(op.Date) && w.AmountRange.Contains(op.Amount)
}

// OperationDate is the date the matching operation is expected on. Debit
// searches target the original expense date; credit searches target the
// reimbursement date.
func OperationDate(bill *billing.Bill, credit bool) time.Time {
	first, second := bill.OriginalDate, bill.Date
	if credit {
		first, second = bill.Date, bill.OriginalDate
	}
	if !first.IsZero() {
		return billing.DateOf(first)
	}
	return billing.DateOf(second)
}

// OperationAmount is the signed amount the matching operation is expected
// to carry: negative for a debit, positive for a credit.
func OperationAmount(bill *billing.Bill, credit bool) decimal.Decimal {
	ref := referenceAmount(bill, credit)
	if credit {
		return ref
	}
	return ref.Neg()
}

func referenceAmount(bill *billing.Bill, credit bool) decimal.Decimal {
	first, second := bill.OriginalAmount, bill.Amount
	if credit {
		first, second = bill.Amount, bill.OriginalAmount
	}
	if first.Valid {
		return first.Decimal
	}
	return second.Decimal
}

// ComputeDateRange derives the date window of a bill.
func ComputeDateRange(bill *billing.Bill, opts Options) (DateRange, error) {
	if bill.Date.IsZero() && bill.OriginalDate.IsZero() {
		return DateRange{}, fmt.Errorf("%w: bill %q has no date", billing.ErrMalformedBill, bill.ID)
	}
	ref := OperationDate(bill, opts.Credit)
	return DateRange{
		Min: ref.AddDate(0, 0, -opts.PastWindow),
		Max: ref.AddDate(0, 0, opts.FutureWindow),
	}, nil
}

// ComputeAmountRange derives the amount window of a bill. Explicit
// MatchingCriterias replace the option deltas entirely.
func ComputeAmountRange(bill *billing.Bill, opts Options) (AmountRange, error) {
	if !bill.Amount.Valid && !bill.OriginalAmount.Valid {
		return AmountRange{}, fmt.Errorf("%w: bill %q has no amount", billing.ErrMalformedBill, bill.ID)
	}

	target := OperationAmount(bill, opts.Credit)

	var lower, upper decimal.Decimal
	if c := bill.MatchingCriterias; c != nil {
		lower, upper = c.AmountLowerDelta, c.AmountUpperDelta
	} else if opts.DeltaMode == DeltaAbsolute {
		lower, upper = opts.MinAmountDelta, opts.MaxAmountDelta
	} else {
		ref := target.Abs()
		lower, upper = ref.Mul(opts.MinAmountDelta), ref.Mul(opts.MaxAmountDelta)
	}

	r := AmountRange{Min: target.Sub(lower), Max: target.Add(upper)}
	if r.Min.GreaterThan(r.Max) {
		r.Min, r.Max = r.Max, r.Min
	}

	if target.IsZero() && r.Width().IsZero() {
		return AmountRange{}, fmt.Errorf("%w: bill %q", ErrZeroReferenceAmount, bill.ID)
	}
	return r, nil
}

// ComputeWindow combines ComputeDateRange and ComputeAmountRange.
func ComputeWindow(bill *billing.Bill, opts Options) (Window, error) {
	dates, err := ComputeDateRange(bill, opts)
	if err != nil {
		return Window{}, err
	}
	amounts, err := ComputeAmountRange(bill, opts)
	if err != nil {
		return Window{}, err
	}
	return Window{DateRange: dates, AmountRange: amounts}, nil
}
