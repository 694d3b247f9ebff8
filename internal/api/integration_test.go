package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/bill-linker/internal/api"
	"github.com/eshaffer321/bill-linker/internal/api/dto"
	"github.com/eshaffer321/bill-linker/internal/application/service"
	"github.com/eshaffer321/bill-linker/internal/domain/billing"
	"github.com/eshaffer321/bill-linker/internal/domain/matcher"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/storage"
)

// =============================================================================
// API Integration Tests
// =============================================================================
// These tests use real SQLite databases to test the full stack:
// HTTP request → Router → Handlers → LinkService → Storage → SQLite

func createTestServer(t *testing.T) (*httptest.Server, *storage.Storage, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "api_integration_*.db")
	require.NoError(t, err)
	tmpFile.Close()

	store, err := storage.NewStorage(tmpFile.Name())
	require.NoError(t, err)

	svc := service.NewLinkService(store, matcher.DefaultOptions(), testLogger(), nil)
	server := api.NewServer(api.DefaultConfig(), store, svc, testLogger())

	ts := httptest.NewServer(server.Router())

	cleanup := func() {
		ts.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	}

	return ts, store, cleanup
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url, body string, v interface{}) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

// seedStore stores a health bill that is also a refund, the expense it
// reimburses and the payment received for it.
func seedStore(t *testing.T, store *storage.Storage) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveBill(ctx, &billing.Bill{
		ID:             "b1",
		Type:           billing.HealthCostsType,
		Vendor:         "Ameli",
		Amount:         billing.NewAmount(decimal.RequireFromString("5")),
		OriginalAmount: billing.NewAmount(decimal.RequireFromString("20")),
		Date:           billing.MustParseDate("2018-01-15"),
		OriginalDate:   billing.MustParseDate("2018-01-02"),
		IsRefund:       true,
	}))
	require.NoError(t, store.SaveOperations(ctx, []*billing.Operation{
		{ID: "expense", Label: "PHARMACIE", Amount: decimal.RequireFromString("-20"), Date: billing.MustParseDate("2018-01-03"), CategoryID: "400610"},
		{ID: "payment", Label: "CPAM", Amount: decimal.RequireFromString("5"), Date: billing.MustParseDate("2018-01-16"), CategoryID: "400610"},
	}))
}

func TestAPI_Integration_HealthCheck(t *testing.T) {
	ts, _, cleanup := createTestServer(t)
	defer cleanup()

	var health dto.HealthResponse
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/health", &health))
	assert.Equal(t, "ok", health.Status)
}

func TestAPI_Integration_EmptyStore(t *testing.T) {
	ts, _, cleanup := createTestServer(t)
	defer cleanup()

	var bills dto.BillListResponse
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/bills", &bills))
	assert.NotNil(t, bills.Bills)
	assert.Empty(t, bills.Bills)

	var ops dto.OperationListResponse
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/operations", &ops))
	assert.Equal(t, 0, ops.Count)

	var links dto.LinkListResponse
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/links", &links))
	assert.Empty(t, links.Links)

	var stats dto.StatsResponse
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/stats", &stats))
	assert.Equal(t, "0.00", stats.LinkedAmount)

	var apiErr dto.APIError
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/runs/missing", &apiErr))
	assert.Equal(t, dto.ErrCodeNotFound, apiErr.Code)
}

func TestAPI_Integration_LinkFlow(t *testing.T) {
	ts, store, cleanup := createTestServer(t)
	defer cleanup()
	seedStore(t, store)

	// Preview commits nothing
	var preview dto.LinkReportResponse
	require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/link/preview", `{}`, &preview))
	assert.True(t, preview.DryRun)
	assert.Equal(t, 2, preview.Summary.Links)

	var links dto.LinkListResponse
	getJSON(t, ts.URL+"/api/links", &links)
	assert.Empty(t, links.Links)

	// A real run links both sides of the refund
	var report dto.LinkReportResponse
	require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/link", `{}`, &report))
	assert.False(t, report.DryRun)
	require.Len(t, report.Matched, 1)
	require.Len(t, report.Matched[0].Selections, 2)
	assert.Equal(t, "expense", report.Matched[0].Selections[0].Link.OperationID)
	assert.Equal(t, "debit", report.Matched[0].Selections[0].Link.Kind)
	assert.Equal(t, "payment", report.Matched[0].Selections[1].Link.OperationID)
	assert.Equal(t, "credit", report.Matched[0].Selections[1].Link.Kind)

	getJSON(t, ts.URL+"/api/links?bill_id=b1", &links)
	assert.Equal(t, 2, links.Count)

	var bill dto.BillResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/bills/b1", &bill))
	assert.Len(t, bill.Links, 2)

	var ops dto.OperationListResponse
	getJSON(t, ts.URL+"/api/operations?from=2018-01-01&to=2018-01-05", &ops)
	require.Len(t, ops.Operations, 1)
	require.Len(t, ops.Operations[0].Reimbursements, 1)
	assert.Equal(t, "b1", ops.Operations[0].Reimbursements[0].BillID)
	assert.Equal(t, "5", ops.Operations[0].Reimbursements[0].Amount)
	assert.Equal(t, "payment", ops.Operations[0].Reimbursements[0].CreditOperationID)

	// The run was recorded
	var run dto.RunResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/runs/"+report.RunID, &run))
	assert.Equal(t, storage.RunStatusCompleted, run.Status)
	assert.Equal(t, 2, run.LinksCreated)

	// A second run skips the already linked bill
	var second dto.LinkReportResponse
	require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/link", ``, &second))
	assert.Equal(t, []string{"b1"}, second.Skipped)

	var stats dto.StatsResponse
	getJSON(t, ts.URL+"/api/stats", &stats)
	assert.Equal(t, 1, stats.LinkedBills)
	assert.Equal(t, 1, stats.DebitLinks)
	assert.Equal(t, 1, stats.CreditLinks)
	assert.Equal(t, 2, stats.Runs)
}

func TestAPI_Integration_InvalidDate(t *testing.T) {
	ts, _, cleanup := createTestServer(t)
	defer cleanup()

	var apiErr dto.APIError
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/operations?to=yesterday", &apiErr))
	assert.Equal(t, dto.ErrCodeBadRequest, apiErr.Code)
}
