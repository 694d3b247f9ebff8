package handlers

import (
	"net/http"

	"github.com/eshaffer321/bill-linker/internal/api/dto"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/storage"
)

// StatsHandler handles stats-related HTTP requests.
type StatsHandler struct {
	*Base
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(repo storage.Repository) *StatsHandler {
	return &StatsHandler{
		Base: NewBase(repo),
	}
}

// Get handles GET /api/stats - returns aggregate statistics.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetStats(r.Context())
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.StatsResponse{
		Bills:         stats.Bills,
		LinkedBills:   stats.LinkedBills,
		UnlinkedBills: stats.Bills - stats.LinkedBills,
		Operations:    stats.Operations,
		Links:         stats.Links,
		DebitLinks:    stats.DebitLinks,
		CreditLinks:   stats.CreditLinks,
		LinkedAmount:  stats.LinkedAmount.StringFixed(2),
		Runs:          stats.Runs,
	}
	if stats.LastRunStarted != nil {
		response.LastRunStarted = timeString(*stats.LastRunStarted)
	}

	h.WriteJSON(w, http.StatusOK, response)
}
