package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/bill-linker/internal/application/linker"
	"github.com/eshaffer321/bill-linker/internal/domain/matcher"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/storage"
)

var (
	// ErrRunInProgress is returned when a run is requested while another one
	// holds the store.
	ErrRunInProgress = errors.New("link run already in progress")

	// ErrInvalidOptions wraps option validation failures.
	ErrInvalidOptions = errors.New("invalid options")
)

// LinkRequest holds parameters for a reconciliation pass.
type LinkRequest struct {
	DryRun  bool
	Options *matcher.Options // nil means the service defaults
}

// LinkService runs reconciliation passes against a repository and records
// each pass as a link run.
type LinkService struct {
	repo     storage.Repository
	defaults matcher.Options
	logger   *slog.Logger
	events   linker.EventSink

	now   func() time.Time
	newID func() string

	// Only one pass may write at a time; capacity checks assume the
	// operations they loaded are current.
	runMu sync.Mutex
}

// NewLinkService creates a new link service. A nil events sink logs every
// link through logger.
func NewLinkService(repo storage.Repository, defaults matcher.Options, logger *slog.Logger, events linker.EventSink) *LinkService {
	if logger == nil {
		logger = slog.Default()
	}
	if events == nil {
		events = linker.NewLogSink(logger)
	}
	return &LinkService{
		repo:     repo,
		defaults: defaults,
		logger:   logger,
		events:   events,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Defaults returns the options used when a request carries none.
func (s *LinkService) Defaults() matcher.Options {
	return s.defaults
}

// Run executes one pass and records it. It returns ErrRunInProgress
// immediately if another pass is running.
func (s *LinkService) Run(ctx context.Context, req LinkRequest) (*linker.Report, error) {
	opts, err := s.resolve(req.Options)
	if err != nil {
		return nil, err
	}

	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	var committer linker.Committer = linker.DryRunCommitter{}
	if !req.DryRun {
		committer = storage.NewCommitter(s.repo)
	}

	run := &storage.LinkRun{
		ID:        s.newID(),
		StartedAt: s.now(),
		DryRun:    req.DryRun,
	}
	if err := s.repo.StartLinkRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record link run: %w", err)
	}

	l := linker.New(committer, s.logger,
		linker.WithRunID(run.ID),
		linker.WithEventSink(s.events),
		linker.WithClock(s.now),
	)
	report, runErr := l.Run(ctx, s.repo, s.repo, opts)

	var counts storage.RunCounts
	if report != nil {
		sum := report.Summary()
		counts = storage.RunCounts{
			Bills:        sum.Bills,
			Matched:      sum.Matched,
			Unmatched:    sum.Unmatched,
			Skipped:      sum.Skipped,
			Errored:      sum.Errored,
			LinksCreated: sum.Links,
		}
	}

	// The outcome is recorded even when the caller's context is done.
	if err := s.repo.CompleteLinkRun(context.WithoutCancel(ctx), run.ID, counts, runErr); err != nil {
		s.logger.Warn("Failed to record link run outcome", "run_id", run.ID, "error", err)
	}

	if runErr != nil {
		return nil, runErr
	}
	return report, nil
}

// Preview runs a dry pass without recording it. It does not take the run
// lock since nothing is written.
func (s *LinkService) Preview(ctx context.Context, opts *matcher.Options) (*linker.Report, error) {
	resolved, err := s.resolve(opts)
	if err != nil {
		return nil, err
	}

	l := linker.New(linker.DryRunCommitter{}, s.logger, linker.WithClock(s.now))
	return l.Run(ctx, s.repo, s.repo, resolved)
}

func (s *LinkService) resolve(opts *matcher.Options) (matcher.Options, error) {
	resolved := s.defaults
	if opts != nil {
		resolved = *opts
	}
	if err := resolved.Validate(); err != nil {
		return matcher.Options{}, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return resolved, nil
}
