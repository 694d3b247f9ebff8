package linker

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
	"github.com/eshaffer321/bill-linker/internal/domain/matcher"
)

// ErrPersistenceFailure wraps every error returned by a Committer.
var ErrPersistenceFailure = errors.New("persistence failure")

// ErrorKind classifies a per-bill failure.
type ErrorKind string

const (
	ErrorMalformedBill      ErrorKind = "malformed_bill"
	ErrorPersistenceFailure ErrorKind = "persistence_failure"
)

// UnmatchedReason says why a bill was left without a link.
type UnmatchedReason string

const (
	ReasonNoCandidate UnmatchedReason = "no_candidate"
	ReasonZeroAmount  UnmatchedReason = "zero_reference_amount"
	ReasonRejected    UnmatchedReason = "rejected"
	ReasonCanceled    UnmatchedReason = "canceled"
)

// Selection describes one link created for a bill and how its operation
// was chosen.
type Selection struct {
	Link           billing.Link
	Path           matcher.Path
	AmountDiff     decimal.Decimal
	DateDiffDays   float64
	CandidateCount int
}

// Match is a bill that received at least one new link in this run.
type Match struct {
	BillID     string
	Selections []Selection
}

// Unmatched is a bill for which no operation could be linked.
type Unmatched struct {
	BillID string
	Kind   billing.LinkKind
	Reason UnmatchedReason
	Detail string
}

// BillError is a per-bill failure. Links committed for the bill before the
// failure are listed in Partial.
type BillError struct {
	BillID  string
	Kind    ErrorKind
	Err     error
	Partial []billing.Link
}

func (e BillError) Error() string {
	return e.BillID + ": " + e.Err.Error()
}

func (e BillError) Unwrap() error {
	return e.Err
}

// Report is the outcome of one linking pass. Every input bill appears in
// exactly one of Matched, Unmatched, Skipped or Errored.
type Report struct {
	RunID      string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time

	Matched   []Match
	Unmatched []Unmatched
	Skipped   []string // bill ids already fully linked
	Errored   []BillError
}

// Summary holds the bucket sizes of a report.
type Summary struct {
	Bills     int
	Matched   int
	Unmatched int
	Skipped   int
	Errored   int
	Links     int
}

// Summary counts the report buckets.
func (r *Report) Summary() Summary {
	s := Summary{
		Matched:   len(r.Matched),
		Unmatched: len(r.Unmatched),
		Skipped:   len(r.Skipped),
		Errored:   len(r.Errored),
	}
	s.Bills = s.Matched + s.Unmatched + s.Skipped + s.Errored
	for _, m := range r.Matched {
		s.Links += len(m.Selections)
	}
	for _, e := range r.Errored {
		s.Links += len(e.Partial)
	}
	return s
}

// Links returns every link created during the run, in commit order per bill.
func (r *Report) Links() []billing.Link {
	var links []billing.Link
	for _, m := range r.Matched {
		for _, s := range m.Selections {
			links = append(links, s.Link)
		}
	}
	for _, e := range r.Errored {
		links = append(links, e.Partial...)
	}
	return links
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
