package handlers

import (
	"context"
	"net/http"

	"github.com/eshaffer321/bill-linker/internal/api/dto"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/storage"
)

// StatsReader is the part of the repository the health check reads.
type StatsReader interface {
	GetStats(ctx context.Context) (*storage.Stats, error)
}

// HealthHandler reports whether the API can reach its store.
type HealthHandler struct {
	store StatsReader
}

// NewHealthHandler creates a health handler backed by store.
func NewHealthHandler(store StatsReader) *HealthHandler {
	return &HealthHandler{store: store}
}

// ServeHTTP answers 200 with the store's counts, or 503 when the store
// cannot be read.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, dto.NewHealthResponse(dto.HealthUnavailable))
		return
	}

	resp := dto.NewHealthResponse(dto.HealthOK)
	resp.Bills = &stats.Bills
	resp.Operations = &stats.Operations
	writeJSON(w, http.StatusOK, resp)
}
