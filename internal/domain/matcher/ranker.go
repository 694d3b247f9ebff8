package matcher

import (
	"sort"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

// Rank orders candidates from most to least likely match for bill.
//
// Keys, in order: window matches before identifier-only matches, smallest
// absolute amount difference to the target operation amount, smallest
// absolute date difference to the target date. Full ties keep their input
// order. The input slice is not modified.
func Rank(bill *billing.Bill, candidates []Candidate, opts Options) []Candidate {
	target := OperationAmount(bill, opts.Credit)
	targetDate := OperationDate(bill, opts.Credit)

	ranked := make([]Candidate, len(candidates))
	for i, c := range candidates {
		ranked[i] = newCandidate(c.Operation, c.Path, target, targetDate, c.Reimbursed, c.Remaining)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if cmp := a.AmountDiff.Cmp(b.AmountDiff); cmp != 0 {
			return cmp < 0
		}
		return a.DateDiff < b.DateDiff
	})
	return ranked
}
