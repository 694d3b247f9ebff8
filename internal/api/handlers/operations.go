package handlers

import (
	"net/http"

	"github.com/eshaffer321/bill-linker/internal/api/dto"
	"github.com/eshaffer321/bill-linker/internal/application/linker"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/storage"
)

// OperationsHandler handles bank operation HTTP requests.
type OperationsHandler struct {
	*Base
}

// NewOperationsHandler creates a new operations handler.
func NewOperationsHandler(repo storage.Repository) *OperationsHandler {
	return &OperationsHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/operations.
// Query params: from, to (YYYY-MM-DD, inclusive), account_id
func (h *OperationsHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := ParseDateParam(r, "from")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid from date"))
		return
	}
	to, err := ParseDateParam(r, "to")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid to date"))
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("to must not be before from"))
		return
	}

	ops, err := h.repo.ListOperations(r.Context(), linker.OperationFilter{
		From:      from,
		To:        to,
		AccountID: r.URL.Query().Get("account_id"),
	})
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.OperationListResponse{
		Operations: make([]dto.OperationResponse, 0, len(ops)),
		Count:      len(ops),
	}
	for _, op := range ops {
		response.Operations = append(response.Operations, toOperationResponse(op))
	}

	h.WriteJSON(w, http.StatusOK, response)
}
