package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bill-linker/internal/api/dto"
	"github.com/eshaffer321/bill-linker/internal/application/linker"
	"github.com/eshaffer321/bill-linker/internal/domain/billing"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/storage"
)

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func timeString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toBillResponse(b *billing.Bill) dto.BillResponse {
	resp := dto.BillResponse{
		ID:             b.ID,
		Type:           b.Type,
		Vendor:         b.Vendor,
		Amount:         nullString(b.Amount),
		OriginalAmount: nullString(b.OriginalAmount),
		Date:           billing.FormatDate(b.Date),
		OriginalDate:   billing.FormatDate(b.OriginalDate),
		IsRefund:       b.IsRefund,
		Identifiers:    b.Identifiers,
	}
	if b.MatchingCriterias != nil {
		resp.AmountLowerDelta = b.MatchingCriterias.AmountLowerDelta.String()
		resp.AmountUpperDelta = b.MatchingCriterias.AmountUpperDelta.String()
	}
	return resp
}

func toOperationResponse(op *billing.Operation) dto.OperationResponse {
	resp := dto.OperationResponse{
		ID:             op.ID,
		Label:          op.Label,
		Amount:         op.Amount.String(),
		Date:           billing.FormatDate(op.Date),
		CategoryID:     op.CategoryID,
		AccountID:      op.AccountID,
		Reimbursements: make([]dto.ReimbursementResponse, 0, len(op.Reimbursements)),
		BillIDs:        make([]string, 0, len(op.BillIDs)),
	}
	for _, r := range op.Reimbursements {
		resp.Reimbursements = append(resp.Reimbursements, dto.ReimbursementResponse{
			BillID:            r.BillID,
			Amount:            r.Amount.String(),
			CreditOperationID: r.CreditOperationID,
		})
	}
	resp.BillIDs = append(resp.BillIDs, op.BillIDs...)
	return resp
}

func toLinkResponse(l billing.Link) dto.LinkResponse {
	return dto.LinkResponse{
		ID:          l.ID,
		RunID:       l.RunID,
		BillID:      l.BillID,
		OperationID: l.OperationID,
		Amount:      l.Amount.String(),
		Kind:        string(l.Kind),
		CreatedAt:   timeString(l.CreatedAt),
	}
}

func toLinkResponses(links []billing.Link) []dto.LinkResponse {
	out := make([]dto.LinkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, toLinkResponse(l))
	}
	return out
}

// toRunResponse converts a storage LinkRun to an API response.
func toRunResponse(run storage.LinkRun) dto.RunResponse {
	resp := dto.RunResponse{
		ID:           run.ID,
		StartedAt:    timeString(run.StartedAt),
		DryRun:       run.DryRun,
		Bills:        run.Bills,
		Matched:      run.Matched,
		Unmatched:    run.Unmatched,
		Skipped:      run.Skipped,
		Errored:      run.Errored,
		LinksCreated: run.LinksCreated,
		Status:       run.Status,
		ErrorMessage: run.ErrorMessage,
	}
	if run.CompletedAt != nil {
		resp.CompletedAt = timeString(*run.CompletedAt)
	}
	return resp
}

func toReportResponse(r *linker.Report) dto.LinkReportResponse {
	sum := r.Summary()
	resp := dto.LinkReportResponse{
		RunID:      r.RunID,
		DryRun:     r.DryRun,
		StartedAt:  timeString(r.StartedAt),
		FinishedAt: timeString(r.FinishedAt),
		Summary: dto.SummaryResponse{
			Bills:     sum.Bills,
			Matched:   sum.Matched,
			Unmatched: sum.Unmatched,
			Skipped:   sum.Skipped,
			Errored:   sum.Errored,
			Links:     sum.Links,
		},
		Matched:   make([]dto.MatchResponse, 0, len(r.Matched)),
		Unmatched: make([]dto.UnmatchedResponse, 0, len(r.Unmatched)),
		Skipped:   append([]string{}, r.Skipped...),
		Errored:   make([]dto.BillErrorResponse, 0, len(r.Errored)),
	}

	for _, m := range r.Matched {
		match := dto.MatchResponse{BillID: m.BillID}
		for _, s := range m.Selections {
			match.Selections = append(match.Selections, dto.SelectionResponse{
				Link:           toLinkResponse(s.Link),
				Path:           s.Path.String(),
				AmountDiff:     s.AmountDiff.String(),
				DateDiffDays:   s.DateDiffDays,
				CandidateCount: s.CandidateCount,
			})
		}
		resp.Matched = append(resp.Matched, match)
	}
	for _, u := range r.Unmatched {
		resp.Unmatched = append(resp.Unmatched, dto.UnmatchedResponse{
			BillID: u.BillID,
			Kind:   string(u.Kind),
			Reason: string(u.Reason),
			Detail: u.Detail,
		})
	}
	for _, e := range r.Errored {
		resp.Errored = append(resp.Errored, dto.BillErrorResponse{
			BillID:  e.BillID,
			Kind:    string(e.Kind),
			Message: e.Error(),
			Partial: toLinkResponses(e.Partial),
		})
	}
	return resp
}
