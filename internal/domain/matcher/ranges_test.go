package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

func TestOperationAmount(t *testing.T) {
	adjusted := &billing.Bill{Amount: amount("7.5"), OriginalAmount: amount("25")}
	plain := &billing.Bill{Amount: amount("7.5")}

	t.Run("debit prefers original amount and is negative", func(t *testing.T) {
		assertDecimal(t, "-25", OperationAmount(adjusted, false))
		assertDecimal(t, "-7.5", OperationAmount(plain, false))
	})

	t.Run("credit prefers current amount and is positive", func(t *testing.T) {
		assertDecimal(t, "7.5", OperationAmount(adjusted, true))
		assertDecimal(t, "7.5", OperationAmount(plain, true))
	})

	t.Run("credit falls back to original amount", func(t *testing.T) {
		onlyOriginal := &billing.Bill{OriginalAmount: amount("25")}
		assertDecimal(t, "25", OperationAmount(onlyOriginal, true))
	})
}

func TestOperationDate(t *testing.T) {
	adjusted := &billing.Bill{Date: day("2018-01-08"), OriginalDate: day("2018-01-03")}
	plain := &billing.Bill{Date: day("2018-01-08")}

	assert.Equal(t, day("2018-01-03"), OperationDate(adjusted, false))
	assert.Equal(t, day("2018-01-08"), OperationDate(plain, false))
	assert.Equal(t, day("2018-01-08"), OperationDate(adjusted, true))
}

func TestComputeDateRange(t *testing.T) {
	bill := &billing.Bill{ID: "b1", Date: day("2018-01-08"), OriginalDate: day("2018-01-03")}
	opts := absoluteOptions(1, 1, "1")

	t.Run("debit range is built around the original date", func(t *testing.T) {
		r, err := ComputeDateRange(bill, opts)
		require.NoError(t, err)
		assert.Equal(t, day("2018-01-02"), r.Min)
		assert.Equal(t, day("2018-01-04"), r.Max)
	})

	t.Run("credit range is built around the bill date", func(t *testing.T) {
		r, err := ComputeDateRange(bill, opts.WithCredit(true))
		require.NoError(t, err)
		assert.Equal(t, day("2018-01-07"), r.Min)
		assert.Equal(t, day("2018-01-09"), r.Max)
	})

	t.Run("asymmetric windows", func(t *testing.T) {
		r, err := ComputeDateRange(bill, absoluteOptions(2, 5, "1"))
		require.NoError(t, err)
		assert.Equal(t, day("2018-01-01"), r.Min)
		assert.Equal(t, day("2018-01-08"), r.Max)
	})

	t.Run("missing date is malformed", func(t *testing.T) {
		_, err := ComputeDateRange(&billing.Bill{ID: "b2", Amount: amount("1")}, opts)
		assert.ErrorIs(t, err, billing.ErrMalformedBill)
	})
}

func TestComputeAmountRange(t *testing.T) {
	opts := absoluteOptions(1, 1, "1")
	criterias := &billing.MatchingCriterias{AmountLowerDelta: dec("2"), AmountUpperDelta: dec("2")}

	plain := &billing.Bill{Amount: amount("7.5")}
	adjusted := &billing.Bill{Amount: amount("7.5"), OriginalAmount: amount("25")}
	plainWithCriterias := &billing.Bill{Amount: amount("7.5"), MatchingCriterias: criterias}
	adjustedWithCriterias := &billing.Bill{Amount: amount("7.5"), OriginalAmount: amount("25"), MatchingCriterias: criterias}

	cases := []struct {
		name     string
		bill     *billing.Bill
		credit   bool
		min, max string
	}{
		{"debit", plain, false, "-8.5", "-6.5"},
		{"debit with criterias", plainWithCriterias, false, "-9.5", "-5.5"},
		{"debit with original amount", adjusted, false, "-26", "-24"},
		{"debit with original amount and criterias", adjustedWithCriterias, false, "-27", "-23"},
		{"credit", plain, true, "6.5", "8.5"},
		{"credit with criterias", plainWithCriterias, true, "5.5", "9.5"},
		{"credit ignores original amount", adjusted, true, "6.5", "8.5"},
		{"credit ignores original amount with criterias", adjustedWithCriterias, true, "5.5", "9.5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := ComputeAmountRange(tc.bill, opts.WithCredit(tc.credit))
			require.NoError(t, err)
			assertDecimal(t, tc.min, r.Min)
			assertDecimal(t, tc.max, r.Max)
		})
	}
}

func TestComputeAmountRange_PercentDefaultIsSymmetric(t *testing.T) {
	opts := DefaultOptions() // 10% each way
	bill := &billing.Bill{Amount: amount("40")}

	r, err := ComputeAmountRange(bill, opts)
	require.NoError(t, err)

	assertDecimal(t, "-44", r.Min)
	assertDecimal(t, "-36", r.Max)
	// width = 2 x 10% x |40|
	assertDecimal(t, "8", r.Width())
	assertDecimal(t, "-40", r.Min.Add(r.Max).Div(dec("2")))
}

func TestComputeAmountRange_CriteriasIgnorePercentDefault(t *testing.T) {
	opts := DefaultOptions()
	bill := &billing.Bill{
		Amount:            amount("10"),
		MatchingCriterias: &billing.MatchingCriterias{AmountLowerDelta: dec("1"), AmountUpperDelta: dec("3")},
	}

	r, err := ComputeAmountRange(bill, opts)
	require.NoError(t, err)

	assertDecimal(t, "-11", r.Min)
	assertDecimal(t, "-7", r.Max)
	assertDecimal(t, "4", r.Width())
}

func TestComputeAmountRange_InvertedCriteriasAreNormalized(t *testing.T) {
	bill := &billing.Bill{
		Amount:            amount("10"),
		MatchingCriterias: &billing.MatchingCriterias{AmountLowerDelta: dec("-3"), AmountUpperDelta: dec("-1")},
	}

	r, err := ComputeAmountRange(bill, DefaultOptions())
	require.NoError(t, err)

	assert.True(t, r.Min.LessThanOrEqual(r.Max))
	assertDecimal(t, "-11", r.Min)
	assertDecimal(t, "-7", r.Max)
}

func TestComputeAmountRange_ZeroAmount(t *testing.T) {
	zero := &billing.Bill{ID: "zero", Amount: amount("0")}

	t.Run("percent delta on zero amount is rejected", func(t *testing.T) {
		_, err := ComputeAmountRange(zero, DefaultOptions())
		assert.ErrorIs(t, err, ErrZeroReferenceAmount)
	})

	t.Run("explicit bounds keep the window usable", func(t *testing.T) {
		withCriterias := &billing.Bill{
			ID:                "zero",
			Amount:            amount("0"),
			MatchingCriterias: &billing.MatchingCriterias{AmountLowerDelta: dec("1"), AmountUpperDelta: dec("1")},
		}
		r, err := ComputeAmountRange(withCriterias, DefaultOptions())
		require.NoError(t, err)
		assertDecimal(t, "-1", r.Min)
		assertDecimal(t, "1", r.Max)
	})

	t.Run("absolute deltas keep the window usable", func(t *testing.T) {
		r, err := ComputeAmountRange(zero, absoluteOptions(1, 1, "0.5"))
		require.NoError(t, err)
		assertDecimal(t, "-0.5", r.Min)
		assertDecimal(t, "0.5", r.Max)
	})
}

func TestComputeWindow_EndToEnd(t *testing.T) {
	bill := &billing.Bill{
		ID:             "b1",
		Amount:         amount("25"),
		OriginalAmount: amount("25"),
		Date:           day("2018-01-08"),
	}

	w, err := ComputeWindow(bill, absoluteOptions(1, 1, "1"))
	require.NoError(t, err)

	assert.Equal(t, day("2018-01-07"), w.DateRange.Min)
	assert.Equal(t, day("2018-01-09"), w.DateRange.Max)
	assertDecimal(t, "-26", w.AmountRange.Min)
	assertDecimal(t, "-24", w.AmountRange.Max)
}

func TestComputeWindow_MissingAmount(t *testing.T) {
	_, err := ComputeWindow(&billing.Bill{ID: "b", Date: day("2018-01-08")}, DefaultOptions())
	assert.ErrorIs(t, err, billing.ErrMalformedBill)
}
