package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/bill-linker/internal/api/dto"
	"github.com/eshaffer321/bill-linker/internal/api/handlers"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/storage"
)

// Helper to set chi URL param in context
func setChiURLParam(ctx context.Context, key, value string) context.Context {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return context.WithValue(ctx, chi.RouteCtxKey, rctx)
}

func startRun(t *testing.T, repo *storage.MockRepository, id string, started time.Time) {
	t.Helper()
	require.NoError(t, repo.StartLinkRun(context.Background(), &storage.LinkRun{ID: id, StartedAt: started}))
}

func TestRunsHandler_List(t *testing.T) {
	t.Run("returns empty list when no runs", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewRunsHandler(repo)

		req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RunListResponse
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)

		assert.Empty(t, response.Runs)
		assert.Equal(t, 0, response.Count)
	})

	t.Run("returns runs newest first", func(t *testing.T) {
		repo := storage.NewMockRepository()
		base := time.Date(2018, 1, 8, 12, 0, 0, 0, time.UTC)

		startRun(t, repo, "r1", base)
		require.NoError(t, repo.CompleteLinkRun(context.Background(), "r1",
			storage.RunCounts{Bills: 10, Matched: 8, Unmatched: 1, Errored: 1, LinksCreated: 8}, nil))
		startRun(t, repo, "r2", base.Add(time.Hour))

		handler := handlers.NewRunsHandler(repo)

		req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RunListResponse
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, 2, response.Count)
		require.Len(t, response.Runs, 2)
		assert.Equal(t, "r2", response.Runs[0].ID)
		assert.Equal(t, storage.RunStatusRunning, response.Runs[0].Status)
		assert.Equal(t, 8, response.Runs[1].Matched)
	})

	t.Run("respects limit parameter", func(t *testing.T) {
		repo := storage.NewMockRepository()
		base := time.Date(2018, 1, 8, 12, 0, 0, 0, time.UTC)

		for i, id := range []string{"a", "b", "c", "d", "e"} {
			startRun(t, repo, id, base.Add(time.Duration(i)*time.Minute))
		}

		handler := handlers.NewRunsHandler(repo)

		req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=3", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RunListResponse
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)

		assert.Len(t, response.Runs, 3)
	})
}

func TestRunsHandler_Get(t *testing.T) {
	t.Run("returns run by ID", func(t *testing.T) {
		repo := storage.NewMockRepository()
		startRun(t, repo, "r1", time.Date(2018, 1, 8, 12, 0, 0, 0, time.UTC))
		require.NoError(t, repo.CompleteLinkRun(context.Background(), "r1",
			storage.RunCounts{Bills: 3}, errors.New("operations unavailable")))

		handler := handlers.NewRunsHandler(repo)

		req := httptest.NewRequest(http.MethodGet, "/api/runs/r1", nil)
		req = req.WithContext(setChiURLParam(req.Context(), "id", "r1"))
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RunResponse
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, "r1", response.ID)
		assert.Equal(t, "2018-01-08T12:00:00Z", response.StartedAt)
		assert.NotEmpty(t, response.CompletedAt)
		assert.Equal(t, 3, response.Bills)
		assert.Equal(t, storage.RunStatusFailed, response.Status)
		assert.Equal(t, "operations unavailable", response.ErrorMessage)
	})

	t.Run("returns 404 for non-existent run", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewRunsHandler(repo)

		req := httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil)
		req = req.WithContext(setChiURLParam(req.Context(), "id", "missing"))
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var response dto.APIError
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, dto.ErrCodeNotFound, response.Code)
	})

	t.Run("returns 400 for empty ID", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewRunsHandler(repo)

		req := httptest.NewRequest(http.MethodGet, "/api/runs/", nil)
		req = req.WithContext(setChiURLParam(req.Context(), "id", ""))
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
