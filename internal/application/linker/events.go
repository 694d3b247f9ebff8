package linker

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

// LinkEvent is the "link made" fact handed to notification pipelines.
type LinkEvent struct {
	RunID       string
	LinkID      string
	BillID      string
	BillType    string
	Vendor      string
	OperationID string
	Label       string
	Kind        billing.LinkKind
	Amount      decimal.Decimal
	DryRun      bool
	At          time.Time
}

// EventSink receives an event for every committed link.
type EventSink interface {
	LinkCreated(ctx context.Context, event LinkEvent)
}

// EventSinkFunc adapts a plain function to EventSink.
type EventSinkFunc func(ctx context.Context, event LinkEvent)

// LinkCreated calls f.
func (f EventSinkFunc) LinkCreated(ctx context.Context, event LinkEvent) {
	f(ctx, event)
}

// LogSink writes link events to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

// NewLogSink creates a sink logging at info level.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{Logger: logger}
}

func (s *LogSink) LinkCreated(ctx context.Context, e LinkEvent) {
	if s == nil || s.Logger == nil {
		return
	}
	s.Logger.InfoContext(ctx, "Link made",
		slog.String("run_id", e.RunID),
		slog.String("bill_id", e.BillID),
		slog.String("vendor", e.Vendor),
		slog.String("operation_id", e.OperationID),
		slog.String("kind", string(e.Kind)),
		slog.String("amount", e.Amount.StringFixed(2)),
		slog.Bool("dry_run", e.DryRun),
	)
}

type nopSink struct{}

func (nopSink) LinkCreated(context.Context, LinkEvent) {}
