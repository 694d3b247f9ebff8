package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/bill-linker/internal/application/service"
	"github.com/eshaffer321/bill-linker/internal/domain/billing"
	"github.com/eshaffer321/bill-linker/internal/domain/matcher"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/config"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/storage"
)

func seededRepo(t *testing.T) *storage.MockRepository {
	t.Helper()
	ctx := context.Background()
	repo := storage.NewMockRepository()
	require.NoError(t, repo.SaveBill(ctx, &billing.Bill{
		ID:     "b1",
		Amount: billing.NewAmount(decimal.NewFromInt(30)),
		Date:   billing.MustParseDate("2018-02-01"),
	}))
	require.NoError(t, repo.SaveBill(ctx, &billing.Bill{
		ID:     "b2",
		Amount: billing.NewAmount(decimal.NewFromInt(500)),
		Date:   billing.MustParseDate("2018-02-01"),
	}))
	require.NoError(t, repo.SaveOperations(ctx, []*billing.Operation{
		{ID: "o1", Label: "EDF", Amount: decimal.NewFromInt(-30), Date: billing.MustParseDate("2018-02-03")},
	}))
	return repo
}

func TestRunLink_PrintsReport(t *testing.T) {
	repo := seededRepo(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewLinkService(repo, matcher.DefaultOptions(), logger, nil)
	var out bytes.Buffer

	err := runLink(context.Background(), repo, svc, logger, false, &out)

	require.NoError(t, err)
	text := out.String()
	assert.Contains(t, text, "bill-linker (PRODUCTION mode)")
	assert.Contains(t, text, "Window: -15/+15 days")
	assert.Contains(t, text, "Bills=2 Matched=1 Unmatched=1")
	assert.Contains(t, text, "b1 -> o1 [debit via window, 2 days off, diff 0]")
	assert.Contains(t, text, "- b2 (debit)")
	assert.Contains(t, text, "All-Time Stats: Bills=2 Linked=1 Links=1 Amount=30.00 Runs=1")
	assert.Contains(t, text, "Linking completed successfully.")
	assert.Len(t, repo.Links(), 1)
}

func TestRunLink_DryRun(t *testing.T) {
	repo := seededRepo(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewLinkService(repo, matcher.DefaultOptions(), logger, nil)
	var out bytes.Buffer

	err := runLink(context.Background(), repo, svc, logger, true, &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "DRY-RUN mode")
	assert.NotContains(t, out.String(), "Linking completed successfully.")
	assert.Empty(t, repo.Links())
}

func TestRunLink_StatsFailureIsLogged(t *testing.T) {
	repo := seededRepo(t)
	repo.GetStatsErr = assert.AnError
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	svc := service.NewLinkService(repo, matcher.DefaultOptions(), logger, nil)
	var out bytes.Buffer

	err := runLink(context.Background(), repo, svc, logger, false, &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Bills=2 Matched=1 Unmatched=1")
	assert.NotContains(t, out.String(), "All-Time Stats")
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "Failed to load all-time stats")
	assert.Len(t, repo.Links(), 1)
}

func TestRunImportThenLink(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bills.json")
	require.NoError(t, os.WriteFile(input, []byte(`{
		"bills": [{"id": "b1", "vendor": "EDF", "amount": "30", "date": "2018-02-01"}],
		"operations": [{"id": "o1", "label": "EDF", "amount": "-30", "date": "2018-02-03"}]
	}`), 0o600))

	cfg := config.Default()
	cfg.Storage.DatabasePath = filepath.Join(dir, "linker.db")
	cfg.Observability.Logging.Level = "error"
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, RunImport(ctx, cfg, &ImportFlags{Files: []string{input}}, &out))
	assert.Contains(t, out.String(), "bills.json: 1 bills, 1 operations")

	out.Reset()
	require.NoError(t, RunLink(ctx, cfg, &LinkFlags{}, &out))
	assert.Contains(t, out.String(), "Matched=1")

	// Links survive in the database
	store, err := OpenStore(cfg.Storage)
	require.NoError(t, err)
	defer store.Close()
	links, err := store.ListLinks(ctx, storage.LinkFilters{BillID: "b1"})
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestRunImport_NoFiles(t *testing.T) {
	err := RunImport(context.Background(), config.Default(), &ImportFlags{}, io.Discard)
	assert.EqualError(t, err, "no input files")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("matching:\n  past_window: 4\n"), 0o600))

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Matching.PastWindow)
	assert.Equal(t, 15, cfg.Matching.FutureWindow)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
