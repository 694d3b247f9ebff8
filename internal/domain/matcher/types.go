package matcher

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

// DeltaMode says how MinAmountDelta and MaxAmountDelta are applied when a
// bill carries no MatchingCriterias.
type DeltaMode string

const (
	// DeltaPercent scales the deltas by the bill's reference amount (0.1 = 10%).
	DeltaPercent DeltaMode = "percent"
	// DeltaAbsolute uses the deltas as currency amounts.
	DeltaAbsolute DeltaMode = "absolute"
)

// Options holds matcher configuration
type Options struct {
	PastWindow   int // days before the reference date
	FutureWindow int // days after the reference date

	MinAmountDelta decimal.Decimal
	MaxAmountDelta decimal.Decimal
	DeltaMode      DeltaMode

	// Credit searches for the income-side operation of a refund bill.
	Credit bool

	AllowUncategorized bool

	// Identifiers are merged with each bill's own identifiers.
	Identifiers []string
	// IdentifierDistance is the Levenshtein distance tolerated between an
	// identifier and a label token. 0 disables fuzzy matching.
	IdentifierDistance int
}

// DefaultOptions returns sensible defaults
func DefaultOptions() Options {
	return Options{
		PastWindow:         15,
		FutureWindow:       15,
		MinAmountDelta:     decimal.RequireFromString("0.1"),
		MaxAmountDelta:     decimal.RequireFromString("0.1"),
		DeltaMode:          DeltaPercent,
		IdentifierDistance: 1,
	}
}

// WithCredit returns a copy of o with the credit flag set.
func (o Options) WithCredit(credit bool) Options {
	o.Credit = credit
	return o
}

// Validate rejects options that would build inverted or meaningless windows.
func (o Options) Validate() error {
	if o.PastWindow < 0 || o.FutureWindow < 0 {
		return fmt.Errorf("date windows must be non-negative (past=%d, future=%d)", o.PastWindow, o.FutureWindow)
	}
	if o.MinAmountDelta.IsNegative() || o.MaxAmountDelta.IsNegative() {
		return fmt.Errorf("amount deltas must be non-negative (min=%s, max=%s)", o.MinAmountDelta, o.MaxAmountDelta)
	}
	switch o.DeltaMode {
	case DeltaPercent, DeltaAbsolute, "":
	default:
		return fmt.Errorf("unknown delta mode %q", o.DeltaMode)
	}
	if o.IdentifierDistance < 0 {
		return fmt.Errorf("identifier distance must be non-negative, got %d", o.IdentifierDistance)
	}
	return nil
}

// Path records why an operation became a candidate.
type Path int

const (
	// PathWindow candidates lie inside both the date and amount windows.
	PathWindow Path = iota
	// PathIdentifier candidates matched one of the bill identifiers only.
	PathIdentifier
)

func (p Path) String() string {
	switch p {
	case PathWindow:
		return "window"
	case PathIdentifier:
		return "identifier"
	default:
		return fmt.Sprintf("path(%d)", int(p))
	}
}

// Candidate is an operation that survived filtering for a given bill.
type Candidate struct {
	Operation  *billing.Operation
	Path       Path
	AmountDiff decimal.Decimal // |operation amount - target amount|
	DateDiff   time.Duration   // |operation date - target date|
	Reimbursed decimal.Decimal
	Remaining  decimal.Decimal
}

// DateDiffDays is DateDiff expressed in days.
func (c Candidate) DateDiffDays() float64 {
	return c.DateDiff.Hours() / 24
}

// MatchResult contains match information
type MatchResult struct {
	Candidate
	Window         Window
	TargetAmount   decimal.Decimal
	TargetDate     time.Time
	CandidateCount int
}
