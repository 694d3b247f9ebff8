package dto

import "time"

// HealthResponse is returned by the health check endpoint. The counts are
// omitted when the store is unreachable.
type HealthResponse struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	Bills      *int   `json:"bills,omitempty"`
	Operations *int   `json:"operations,omitempty"`
}

// Health statuses.
const (
	HealthOK          = "ok"
	HealthUnavailable = "unavailable"
)

// NewHealthResponse creates a health response stamped with the current time.
func NewHealthResponse(status string) HealthResponse {
	return HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// BillResponse represents a bill in API responses.
// Amounts are decimal strings; a missing amount or date is omitted.
type BillResponse struct {
	ID               string         `json:"id"`
	Type             string         `json:"type,omitempty"`
	Vendor           string         `json:"vendor"`
	Amount           string         `json:"amount,omitempty"`
	OriginalAmount   string         `json:"original_amount,omitempty"`
	Date             string         `json:"date,omitempty"`
	OriginalDate     string         `json:"original_date,omitempty"`
	IsRefund         bool           `json:"is_refund"`
	AmountLowerDelta string         `json:"amount_lower_delta,omitempty"`
	AmountUpperDelta string         `json:"amount_upper_delta,omitempty"`
	Identifiers      []string       `json:"identifiers,omitempty"`
	Links            []LinkResponse `json:"links,omitempty"`
}

// BillListResponse is returned when listing bills.
type BillListResponse struct {
	Bills      []BillResponse `json:"bills"`
	TotalCount int            `json:"total_count"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
}

// ReimbursementResponse is a bill's claim on an operation.
type ReimbursementResponse struct {
	BillID            string `json:"bill_id"`
	Amount            string `json:"amount"`
	CreditOperationID string `json:"credit_operation_id,omitempty"`
}

// OperationResponse represents a bank operation in API responses.
type OperationResponse struct {
	ID             string                  `json:"id"`
	Label          string                  `json:"label"`
	Amount         string                  `json:"amount"`
	Date           string                  `json:"date"`
	CategoryID     string                  `json:"category_id,omitempty"`
	AccountID      string                  `json:"account_id,omitempty"`
	Reimbursements []ReimbursementResponse `json:"reimbursements"`
	BillIDs        []string                `json:"bill_ids"`
}

// OperationListResponse is returned when listing operations.
type OperationListResponse struct {
	Operations []OperationResponse `json:"operations"`
	Count      int                 `json:"count"`
}

// LinkResponse represents one bill/operation link.
type LinkResponse struct {
	ID          string `json:"id"`
	RunID       string `json:"run_id,omitempty"`
	BillID      string `json:"bill_id"`
	OperationID string `json:"operation_id"`
	Amount      string `json:"amount"`
	Kind        string `json:"kind"`
	CreatedAt   string `json:"created_at"`
}

// LinkListResponse is returned when listing links.
type LinkListResponse struct {
	Links []LinkResponse `json:"links"`
	Count int            `json:"count"`
}

// RunResponse represents a link run record.
type RunResponse struct {
	ID           string `json:"id"`
	StartedAt    string `json:"started_at"`
	CompletedAt  string `json:"completed_at,omitempty"`
	DryRun       bool   `json:"dry_run"`
	Bills        int    `json:"bills"`
	Matched      int    `json:"matched"`
	Unmatched    int    `json:"unmatched"`
	Skipped      int    `json:"skipped"`
	Errored      int    `json:"errored"`
	LinksCreated int    `json:"links_created"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// RunListResponse is returned when listing link runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// StatsResponse is returned by the stats endpoint.
type StatsResponse struct {
	Bills          int    `json:"bills"`
	LinkedBills    int    `json:"linked_bills"`
	UnlinkedBills  int    `json:"unlinked_bills"`
	Operations     int    `json:"operations"`
	Links          int    `json:"links"`
	DebitLinks     int    `json:"debit_links"`
	CreditLinks    int    `json:"credit_links"`
	LinkedAmount   string `json:"linked_amount"`
	Runs           int    `json:"runs"`
	LastRunStarted string `json:"last_run_started,omitempty"`
}

// SelectionResponse is one link chosen for a bill, with how it was found.
type SelectionResponse struct {
	Link           LinkResponse `json:"link"`
	Path           string       `json:"path"`
	AmountDiff     string       `json:"amount_diff"`
	DateDiffDays   float64      `json:"date_diff_days"`
	CandidateCount int          `json:"candidate_count"`
}

// MatchResponse lists the links made for a bill.
type MatchResponse struct {
	BillID     string              `json:"bill_id"`
	Selections []SelectionResponse `json:"selections"`
}

// UnmatchedResponse explains why a bill got no link.
type UnmatchedResponse struct {
	BillID string `json:"bill_id"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// BillErrorResponse describes a bill that failed.
type BillErrorResponse struct {
	BillID  string         `json:"bill_id"`
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Partial []LinkResponse `json:"partial,omitempty"`
}

// SummaryResponse holds the bucket counts of a report.
type SummaryResponse struct {
	Bills     int `json:"bills"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Skipped   int `json:"skipped"`
	Errored   int `json:"errored"`
	Links     int `json:"links"`
}

// LinkReportResponse is returned by the link and preview endpoints.
type LinkReportResponse struct {
	RunID      string              `json:"run_id"`
	DryRun     bool                `json:"dry_run"`
	StartedAt  string              `json:"started_at"`
	FinishedAt string              `json:"finished_at"`
	Summary    SummaryResponse     `json:"summary"`
	Matched    []MatchResponse     `json:"matched"`
	Unmatched  []UnmatchedResponse `json:"unmatched"`
	Skipped    []string            `json:"skipped"`
	Errored    []BillErrorResponse `json:"errored"`
}
