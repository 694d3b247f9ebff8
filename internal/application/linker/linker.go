// Package linker reconciles bills with bank operations.
//
// A Linker walks the bills of a batch one at a time. For each bill it asks
// the matcher for the best debit operation (and, for refund bills, the best
// credit operation), re-checks the selection against the operation's
// current state, annotates the operation in memory and hands the change to
// a Committer. Bills are processed strictly in order so capacity consumed
// by one bill is visible to the next.
package linker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
	"github.com/eshaffer321/bill-linker/internal/domain/matcher"
)

// Linker runs reconciliation passes.
type Linker struct {
	committer Committer
	events    EventSink
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	runID     string
	dryRun    bool
}

// Option configures a Linker.
type Option func(*Linker)

// WithEventSink sets the sink notified of every committed link.
func WithEventSink(sink EventSink) Option {
	return func(l *Linker) {
		if sink != nil {
			l.events = sink
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Linker) { l.now = now }
}

// WithIDGenerator overrides the run and link id generator.
func WithIDGenerator(gen func() string) Option {
	return func(l *Linker) { l.newID = gen }
}

// WithRunID fixes the id reported for every pass instead of generating one.
func WithRunID(id string) Option {
	return func(l *Linker) { l.runID = id }
}

// New creates a Linker that persists through committer. A nil committer
// means dry run.
func New(committer Committer, logger *slog.Logger, opts ...Option) *Linker {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Linker{
		committer: committer,
		events:    nopSink{},
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	if committer == nil {
		l.committer = DryRunCommitter{}
	}
	if _, ok := l.committer.(DryRunCommitter); ok {
		l.dryRun = true
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run loads bills and the operations their windows can reach, then links
// them.
func (l *Linker) Run(ctx context.Context, bills BillSource, ops OperationSource, opts matcher.Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	billList, err := bills.ListBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}

	filter := OperationWindow(billList, opts)
	l.logger.Debug("Loading operations",
		"bills", len(billList),
		"from", billing.FormatDate(filter.From),
		"to", billing.FormatDate(filter.To),
	)

	opList, err := ops.ListOperations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}

	return l.LinkBillsToOperations(ctx, billList, opList, opts)
}

// LinkBillsToOperations links every bill to its best operations. Only
// invalid options produce an error; per-bill failures are reported.
//
// Operations are annotated in place: debit links append a Reimbursement,
// credit links append the bill id to BillIDs.
func (l *Linker) LinkBillsToOperations(ctx context.Context, bills []*billing.Bill, ops []*billing.Operation, opts matcher.Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	runID := l.runID
	if runID == "" {
		runID = l.newID()
	}

	r := &run{
		Linker:  l,
		matcher: matcher.NewMatcher(opts),
		ops:     ops,
		report: &Report{
			RunID:     runID,
			DryRun:    l.dryRun,
			StartedAt: l.now(),
		},
	}

	l.logger.Info("Starting link run",
		"run_id", r.report.RunID,
		"bills", len(bills),
		"operations", len(ops),
		"dry_run", l.dryRun,
	)

	for i, bill := range bills {
		if ctx.Err() != nil {
			for _, rest := range bills[i:] {
				r.report.Unmatched = append(r.report.Unmatched, Unmatched{
					BillID: billID(rest),
					Kind:   billing.LinkDebit,
					Reason: ReasonCanceled,
					Detail: ctx.Err().Error(),
				})
			}
			break
		}
		r.linkBill(ctx, bill)
	}

	r.report.FinishedAt = l.now()
	s := r.report.Summary()
	l.logger.Info("Link run complete",
		"run_id", r.report.RunID,
		"matched", s.Matched,
		"unmatched", s.Unmatched,
		"skipped", s.Skipped,
		"errored", s.Errored,
		"links", s.Links,
		"duration", r.report.Duration(),
	)
	return r.report, nil
}

// run is the state of one pass.
type run struct {
	*Linker
	matcher *matcher.Matcher
	ops     []*billing.Operation
	report  *Report
}

type phaseStatus int

const (
	phaseLinked phaseStatus = iota
	phaseAlreadyLinked
	phaseUnmatched
	phaseFailed
)

type phaseResult struct {
	status    phaseStatus
	kind      billing.LinkKind
	selection Selection
	operation *billing.Operation
	reason    UnmatchedReason
	detail    string
	errKind   ErrorKind
	err       error
}

func (r *run) linkBill(ctx context.Context, bill *billing.Bill) {
	if err := bill.Validate(); err != nil {
		r.logger.Warn("Skipping malformed bill", "bill_id", billID(bill), "error", err)
		r.report.Errored = append(r.report.Errored, BillError{
			BillID: billID(bill),
			Kind:   ErrorMalformedBill,
			Err:    err,
		})
		return
	}

	debit := r.phase(ctx, bill, false, nil)
	phases := []phaseResult{debit}

	if bill.IsRefund && debit.status != phaseFailed {
		credit := r.phase(ctx, bill, true, debit.operation)
		phases = append(phases, credit)
	}

	r.classify(bill, phases)
}

// classify puts the bill into exactly one report bucket:
// errored > matched > skipped > unmatched.
func (r *run) classify(bill *billing.Bill, phases []phaseResult) {
	var linked []Selection
	var failed *phaseResult
	var unmatched *phaseResult
	allAlready := true

	for i := range phases {
		p := &phases[i]
		switch p.status {
		case phaseLinked:
			linked = append(linked, p.selection)
		case phaseFailed:
			if failed == nil {
				failed = p
			}
		case phaseUnmatched:
			if unmatched == nil {
				unmatched = p
			}
		}
		if p.status != phaseAlreadyLinked {
			allAlready = false
		}
	}

	switch {
	case failed != nil:
		be := BillError{BillID: bill.ID, Kind: failed.errKind, Err: failed.err}
		for _, s := range linked {
			be.Partial = append(be.Partial, s.Link)
		}
		r.report.Errored = append(r.report.Errored, be)
	case len(linked) > 0:
		r.report.Matched = append(r.report.Matched, Match{BillID: bill.ID, Selections: linked})
	case allAlready:
		r.logger.Debug("Bill already linked", "bill_id", bill.ID)
		r.report.Skipped = append(r.report.Skipped, bill.ID)
	default:
		r.report.Unmatched = append(r.report.Unmatched, Unmatched{
			BillID: bill.ID,
			Kind:   unmatched.kind,
			Reason: unmatched.reason,
			Detail: unmatched.detail,
		})
	}
}

// phase runs one debit or credit search for bill. debitOp is the operation
// linked by the debit phase of this run, if any.
func (r *run) phase(ctx context.Context, bill *billing.Bill, credit bool, debitOp *billing.Operation) phaseResult {
	kind := billing.LinkDebit
	if credit {
		kind = billing.LinkCredit
	}
	res := phaseResult{kind: kind}

	if r.alreadyLinked(bill, credit) {
		res.status = phaseAlreadyLinked
		return res
	}

	result, err := r.matcher.FindMatch(bill, r.ops, credit)
	switch {
	case errors.Is(err, matcher.ErrZeroReferenceAmount):
		r.logger.Debug("Zero amount bill left unmatched", "bill_id", bill.ID, "kind", kind)
		res.status = phaseUnmatched
		res.reason = ReasonZeroAmount
		res.detail = err.Error()
		return res
	case err != nil:
		res.status = phaseFailed
		res.errKind = ErrorMalformedBill
		res.err = err
		return res
	case result == nil:
		r.logger.Debug("No matching operation found", "bill_id", bill.ID, "kind", kind)
		res.status = phaseUnmatched
		res.reason = ReasonNoCandidate
		return res
	}

	if err := r.matcher.Verify(bill, result, credit); err != nil {
		r.logger.Warn("Selected operation rejected", "bill_id", bill.ID, "operation_id", result.Operation.ID, "error", err)
		res.status = phaseUnmatched
		res.reason = ReasonRejected
		res.detail = err.Error()
		return res
	}

	link := billing.Link{
		ID:          r.newID(),
		RunID:       r.report.RunID,
		BillID:      bill.ID,
		OperationID: result.Operation.ID,
		Amount:      bill.ReimbursementAmount(),
		Kind:        kind,
		CreatedAt:   r.now(),
	}

	if credit {
		err = r.commitCredit(ctx, bill, link, result.Operation, debitOp)
	} else {
		err = r.commitDebit(ctx, link, result.Operation)
	}
	if err != nil {
		r.logger.Error("Failed to commit link",
			"bill_id", bill.ID,
			"operation_id", result.Operation.ID,
			"kind", kind,
			"error", err,
		)
		res.status = phaseFailed
		res.errKind = ErrorPersistenceFailure
		res.err = err
		return res
	}

	r.logger.Debug("Linked bill",
		"bill_id", bill.ID,
		"operation_id", result.Operation.ID,
		"kind", kind,
		"path", result.Path.String(),
		"amount_diff", result.AmountDiff.String(),
		"date_diff_days", result.DateDiffDays(),
		"candidates", result.CandidateCount,
	)

	r.events.LinkCreated(ctx, LinkEvent{
		RunID:       link.RunID,
		LinkID:      link.ID,
		BillID:      bill.ID,
		BillType:    bill.Type,
		Vendor:      bill.Vendor,
		OperationID: result.Operation.ID,
		Label:       result.Operation.Label,
		Kind:        kind,
		Amount:      link.Amount,
		DryRun:      r.dryRun,
		At:          link.CreatedAt,
	})

	res.status = phaseLinked
	res.operation = result.Operation
	res.selection = Selection{
		Link:           link,
		Path:           result.Path,
		AmountDiff:     result.AmountDiff,
		DateDiffDays:   result.DateDiffDays(),
		CandidateCount: result.CandidateCount,
	}
	return res
}

// alreadyLinked reports whether the links for bill on this side already
// exist. A debit side counts as linked once its reimbursements cover the
// bill amount.
func (r *run) alreadyLinked(bill *billing.Bill, credit bool) bool {
	if credit {
		for _, op := range r.ops {
			if op != nil && matcher.LinkedToBill(op, bill.ID, true) {
				return true
			}
		}
		return false
	}

	covered := matcher.TotalReimbursedForBill(r.ops, bill.ID)
	return covered.IsPositive() && covered.GreaterThanOrEqual(bill.ReimbursementAmount())
}

func (r *run) commitDebit(ctx context.Context, link billing.Link, op *billing.Operation) error {
	op.Reimbursements = append(op.Reimbursements, billing.Reimbursement{
		BillID: link.BillID,
		Amount: link.Amount,
	})

	if err := r.committer.Commit(ctx, Change{Link: link, Operations: []*billing.Operation{op}}); err != nil {
		op.Reimbursements = op.Reimbursements[:len(op.Reimbursements)-1]
		return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}
	return nil
}

func (r *run) commitCredit(ctx context.Context, bill *billing.Bill, link billing.Link, op, debitOp *billing.Operation) error {
	op.BillIDs = append(op.BillIDs, bill.ID)
	changed := []*billing.Operation{op}

	// Point the debit reimbursement at the credit operation that paid it.
	debitOp, idx := r.debitReimbursement(bill.ID, debitOp)
	var previous string
	if debitOp != nil {
		previous = debitOp.Reimbursements[idx].CreditOperationID
		debitOp.Reimbursements[idx].CreditOperationID = op.ID
		if debitOp != op {
			changed = append(changed, debitOp)
		}
	}

	if err := r.committer.Commit(ctx, Change{Link: link, Operations: changed}); err != nil {
		op.BillIDs = op.BillIDs[:len(op.BillIDs)-1]
		if debitOp != nil {
			debitOp.Reimbursements[idx].CreditOperationID = previous
		}
		return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}
	return nil
}

// debitReimbursement finds the reimbursement entry recorded for billID,
// looking at hint first.
func (r *run) debitReimbursement(billID string, hint *billing.Operation) (*billing.Operation, int) {
	if hint != nil {
		for i, re := range hint.Reimbursements {
			if re.BillID == billID {
				return hint, i
			}
		}
	}
	for _, op := range r.ops {
		if op == nil {
			continue
		}
		for i, re := range op.Reimbursements {
			if re.BillID == billID {
				return op, i
			}
		}
	}
	return nil, -1
}

func billID(bill *billing.Bill) string {
	if bill == nil {
		return ""
	}
	return bill.ID
}
