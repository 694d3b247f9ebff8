package billing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMalformedBill is returned when a bill lacks the fields needed to build
// a matching window.
var ErrMalformedBill = errors.New("malformed bill")

const dateLayout = "2006-01-02"

// Validate checks that the bill carries an amount and a date.
func (b *Bill) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil bill", ErrMalformedBill)
	}
	if !b.Amount.Valid && !b.OriginalAmount.Valid {
		return fmt.Errorf("%w: bill %q has neither amount nor originalAmount", ErrMalformedBill, b.ID)
	}
	if b.Date.IsZero() && b.OriginalDate.IsZero() {
		return fmt.Errorf("%w: bill %q has no date", ErrMalformedBill, b.ID)
	}
	return nil
}

// ReimbursementAmount is the amount this bill consumes on the debit
// operation it is linked to.
func (b *Bill) ReimbursementAmount() decimal.Decimal {
	if b.Amount.Valid {
		return b.Amount.Decimal
	}
	return b.OriginalAmount.Decimal
}

// IsHealthCosts reports whether the bill is a health-expense bill.
func (b *Bill) IsHealthCosts() bool {
	return b.Type == HealthCostsType
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// MustParseDate is ParseDate for fixtures; it panics on bad input.
func MustParseDate(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// FormatDate renders t as YYYY-MM-DD, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// NewAmount wraps a decimal as a present optional amount.
func NewAmount(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}
