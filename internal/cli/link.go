package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/eshaffer321/bill-linker/internal/application/service"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/config"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/storage"
)

// RunLink runs one reconciliation pass against the configured store and
// prints its report to w.
func RunLink(ctx context.Context, cfg *config.Config, flags *LinkFlags, w io.Writer) error {
	logger := NewLogger(cfg, "linker", flags.Verbose)

	defaults, err := cfg.Matching.ToOptions()
	if err != nil {
		return err
	}
	opts, err := flags.Apply(defaults)
	if err != nil {
		return err
	}

	store, err := OpenStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return runLink(ctx, store, service.NewLinkService(store, opts, logger, nil), logger, flags.DryRun, w)
}

func runLink(ctx context.Context, repo storage.Repository, svc *service.LinkService, logger *slog.Logger, dryRun bool, w io.Writer) error {
	PrintHeader(w, dryRun)
	PrintConfiguration(w, svc.Defaults())

	report, err := svc.Run(ctx, service.LinkRequest{DryRun: dryRun})
	if err != nil {
		return err
	}

	stats, err := repo.GetStats(ctx)
	if err != nil {
		logger.Warn("Failed to load all-time stats", "error", err)
	}
	PrintLinkSummary(w, report, stats)
	return nil
}
