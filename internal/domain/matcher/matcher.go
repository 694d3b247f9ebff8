// Package matcher provides the bill-to-operation matching logic used by
// the linker.
//
// Matching runs in three steps:
//   - a window (date range + amount range) is derived from the bill
//   - operations inside the window, or whose label carries one of the
//     bill identifiers, become candidates
//   - candidates are ranked by amount closeness, then date closeness
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultOptions())
//	result, err := m.FindMatch(bill, operations, false)
//	if result != nil {
//		// Found a match!
//		op := result.Operation
//	}
package matcher

import (
	"errors"
	"fmt"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

// ErrRejected is returned by Verify when a selected candidate no longer
// satisfies the matching constraints.
var ErrRejected = errors.New("candidate rejected")

// Matcher matches bills with bank operations
type Matcher struct {
	opts Options
}

// NewMatcher creates a new matcher with the given options
func NewMatcher(opts Options) *Matcher {
	if opts.DeltaMode == "" {
		opts.DeltaMode = DeltaPercent
	}
	return &Matcher{
		opts: opts,
	}
}

// Options returns the matcher options.
func (m *Matcher) Options() Options {
	return m.opts
}

// FindMatch finds the best matching operation for a bill.
// Returns nil if no suitable match found.
func (m *Matcher) FindMatch(bill *billing.Bill, ops []*billing.Operation, credit bool) (*MatchResult, error) {
	opts := m.opts.WithCredit(credit)

	window, err := ComputeWindow(bill, opts)
	if err != nil {
		return nil, err
	}

	candidates, err := FindCandidates(bill, ops, opts)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ranked := Rank(bill, candidates, opts)

	return &MatchResult{
		Candidate:      ranked[0],
		Window:         window,
		TargetAmount:   OperationAmount(bill, credit),
		TargetDate:     OperationDate(bill, credit),
		CandidateCount: len(ranked),
	}, nil
}

// Verify re-checks a selected match against the current state of its
// operation. The linker calls it right before committing, after earlier
// bills in the same run may have consumed capacity.
func (m *Matcher) Verify(bill *billing.Bill, result *MatchResult, credit bool) error {
	if result == nil || result.Operation == nil {
		return fmt.Errorf("%w: no operation", ErrRejected)
	}
	op := result.Operation

	if LinkedToBill(op, bill.ID, credit) {
		return fmt.Errorf("%w: operation %s already linked to bill %s", ErrRejected, op.ID, bill.ID)
	}
	if !rightDirection(op, credit) {
		return fmt.Errorf("%w: operation %s amount %s has the wrong sign", ErrRejected, op.ID, op.Amount)
	}

	if result.Path == PathWindow {
		if !result.Window.DateRange.Contains(op.Date) {
			return fmt.Errorf("%w: operation %s date %s outside [%s, %s]", ErrRejected, op.ID,
				billing.FormatDate(op.Date), billing.FormatDate(result.Window.DateRange.Min), billing.FormatDate(result.Window.DateRange.Max))
		}
		if !result.Window.AmountRange.Contains(op.Amount) {
			return fmt.Errorf("%w: operation %s amount %s outside [%s, %s]", ErrRejected, op.ID,
				op.Amount, result.Window.AmountRange.Min, result.Window.AmountRange.Max)
		}
	}

	if !credit {
		needed := bill.ReimbursementAmount()
		if remaining := RemainingCapacity(op); !hasCapacity(remaining, needed) {
			return fmt.Errorf("%w: operation %s has %s left, bill needs %s", ErrRejected, op.ID, remaining, needed)
		}
	}
	return nil
}
