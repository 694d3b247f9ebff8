package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/bill-linker/internal/api/dto"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/storage"
)

// BillsHandler handles bill-related HTTP requests.
type BillsHandler struct {
	*Base
}

// NewBillsHandler creates a new bills handler.
func NewBillsHandler(repo storage.Repository) *BillsHandler {
	return &BillsHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/bills - returns a page of bills.
// Query params: type, vendor, limit, offset
func (h *BillsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := storage.BillFilters{
		Type:   r.URL.Query().Get("type"),
		Vendor: r.URL.Query().Get("vendor"),
		Limit:  ParseIntParam(r, "limit", 50),
		Offset: ParseIntParam(r, "offset", 0),
	}
	if filters.Limit > 500 {
		filters.Limit = 500
	}

	result, err := h.repo.FindBills(r.Context(), filters)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.BillListResponse{
		Bills:      make([]dto.BillResponse, 0, len(result.Bills)),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	}
	for _, b := range result.Bills {
		response.Bills = append(response.Bills, toBillResponse(b))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/bills/{id} - returns a bill with its links.
func (h *BillsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("bill ID is required"))
		return
	}

	bill, err := h.repo.GetBill(r.Context(), id)
	if err != nil {
		h.WriteRepoError(w, err, "bill")
		return
	}

	links, err := h.repo.ListLinks(r.Context(), storage.LinkFilters{BillID: id, Limit: 100})
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := toBillResponse(bill)
	response.Links = toLinkResponses(links)
	h.WriteJSON(w, http.StatusOK, response)
}
