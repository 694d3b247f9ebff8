package matcher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func amount(s string) decimal.NullDecimal {
	return billing.NewAmount(dec(s))
}

func day(s string) time.Time {
	return billing.MustParseDate(s)
}

// Helper to create test operation
func makeOperation(id, amt, date string) *billing.Operation {
	return &billing.Operation{
		ID:     id,
		Label:  "CB " + id,
		Amount: dec(amt),
		Date:   day(date),
	}
}

func absoluteOptions(past, future int, delta string) Options {
	opts := DefaultOptions()
	opts.PastWindow = past
	opts.FutureWindow = future
	opts.MinAmountDelta = dec(delta)
	opts.MaxAmountDelta = dec(delta)
	opts.DeltaMode = DeltaAbsolute
	return opts
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "expected %s, got %s", want, got)
}

func candidateIDs(candidates []Candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Operation.ID
	}
	return ids
}
