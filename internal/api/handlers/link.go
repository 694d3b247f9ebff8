package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/eshaffer321/bill-linker/internal/api/dto"
	"github.com/eshaffer321/bill-linker/internal/application/service"
)

// LinkHandler triggers reconciliation passes.
type LinkHandler struct {
	*Base
	linkService *service.LinkService
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(linkService *service.LinkService) *LinkHandler {
	return &LinkHandler{
		Base:        &Base{},
		linkService: linkService,
	}
}

// Run handles POST /api/link - runs a pass and returns its report.
// The body is optional; an empty body means a real run with default options.
func (h *LinkHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req dto.LinkRequest
	if err := decodeOptional(r, &req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	opts := req.Options.Apply(h.linkService.Defaults())
	report, err := h.linkService.Run(r.Context(), service.LinkRequest{
		DryRun:  req.DryRun,
		Options: &opts,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toReportResponse(report))
}

// Preview handles POST /api/link/preview - a dry pass over the stored bills
// with the given options. Nothing is written.
func (h *LinkHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req dto.OptionsRequest
	if err := decodeOptional(r, &req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	opts := req.Apply(h.linkService.Defaults())
	report, err := h.linkService.Preview(r.Context(), &opts)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toReportResponse(report))
}

func (h *LinkHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidOptions):
		h.WriteError(w, http.StatusBadRequest, dto.InvalidOptionsError(err))
	case errors.Is(err, service.ErrRunInProgress):
		h.WriteError(w, http.StatusConflict, dto.RunInProgressError())
	default:
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
	}
}

// decodeOptional decodes a JSON body into v, treating an empty body as {}.
func decodeOptional(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
