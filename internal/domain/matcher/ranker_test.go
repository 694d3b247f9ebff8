package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

// rankOperations ranks ops as window candidates and returns their ids.
func rankOperations(bill *billing.Bill, ops []*billing.Operation, opts Options) []string {
	candidates := make([]Candidate, len(ops))
	for i, op := range ops {
		candidates[i] = Candidate{Operation: op, Path: PathWindow}
	}
	return candidateIDs(Rank(bill, candidates, opts))
}

func TestRank_Order(t *testing.T) {
	bill := makeBill("b1", "10", "2017-01-17")
	opts := DefaultOptions()

	t.Run("amount before date", func(t *testing.T) {
		ops := []*billing.Operation{
			makeOperation("closest-date", "-10.5", "2017-01-17"),
			makeOperation("closest-amount", "-10", "2017-01-22"),
			makeOperation("far", "-11", "2017-01-18"),
		}

		assert.Equal(t, []string{"closest-amount", "closest-date", "far"}, rankOperations(bill, ops, opts))
	})

	t.Run("exact amount and date comes first", func(t *testing.T) {
		ops := []*billing.Operation{
			makeOperation("a", "-10", "2017-01-16"),
			makeOperation("b", "-11", "2017-01-17"),
			makeOperation("c", "-10", "2017-01-17"),
		}

		assert.Equal(t, []string{"c", "a", "b"}, rankOperations(bill, ops, opts))
	})

	t.Run("equal amounts are ordered by date distance", func(t *testing.T) {
		ops := []*billing.Operation{
			makeOperation("two-days", "-10", "2017-01-19"),
			makeOperation("same-day", "-10", "2017-01-17"),
			makeOperation("one-day", "-10", "2017-01-16"),
		}

		assert.Equal(t, []string{"same-day", "one-day", "two-days"}, rankOperations(bill, ops, opts))
	})

	t.Run("full ties keep input order", func(t *testing.T) {
		ops := []*billing.Operation{
			makeOperation("first", "-10", "2017-01-18"),
			makeOperation("second", "-10", "2017-01-16"),
			makeOperation("third", "-10", "2017-01-18"),
		}

		assert.Equal(t, []string{"first", "second", "third"}, rankOperations(bill, ops, opts))
	})

	t.Run("credit ranks against the positive amount", func(t *testing.T) {
		ops := []*billing.Operation{
			makeOperation("debit", "-10", "2017-01-17"),
			makeOperation("credit", "10", "2017-01-17"),
		}

		assert.Equal(t, []string{"credit", "debit"}, rankOperations(bill, ops, opts.WithCredit(true)))
	})
}

func TestRank_WindowBeforeIdentifier(t *testing.T) {
	bill := makeBill("b1", "10", "2017-01-17")
	candidates := []Candidate{
		{Operation: makeOperation("label", "-10", "2017-01-17"), Path: PathIdentifier},
		{Operation: makeOperation("window", "-10.9", "2017-01-20"), Path: PathWindow},
	}

	ranked := Rank(bill, candidates, DefaultOptions())

	assert.Equal(t, []string{"window", "label"}, candidateIDs(ranked))
	// input untouched
	assert.Equal(t, "label", candidates[0].Operation.ID)
}

func TestRank_ComputesDiffs(t *testing.T) {
	bill := makeBill("b1", "10", "2017-01-17")
	candidates := []Candidate{{Operation: makeOperation("a", "-12", "2017-01-14")}}

	ranked := Rank(bill, candidates, DefaultOptions())

	assertDecimal(t, "2", ranked[0].AmountDiff)
	assert.InDelta(t, 3.0, ranked[0].DateDiffDays(), 0.001)
}
