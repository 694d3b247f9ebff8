package handlers

import (
	"net/http"

	"github.com/eshaffer321/bill-linker/internal/api/dto"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/storage"
)

// LinksHandler lists stored links.
type LinksHandler struct {
	*Base
}

// NewLinksHandler creates a new links handler.
func NewLinksHandler(repo storage.Repository) *LinksHandler {
	return &LinksHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/links.
// Query params: bill_id, operation_id, run_id, limit, offset
func (h *LinksHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	links, err := h.repo.ListLinks(r.Context(), storage.LinkFilters{
		BillID:      q.Get("bill_id"),
		OperationID: q.Get("operation_id"),
		RunID:       q.Get("run_id"),
		Limit:       ParseIntParam(r, "limit", 50),
		Offset:      ParseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.LinkListResponse{
		Links: toLinkResponses(links),
		Count: len(links),
	})
}
