package storage

import (
	"context"
	"errors"

	"github.com/eshaffer321/bill-linker/internal/application/linker"
	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, in-memory)
// and makes testing with mocks straightforward.
type Repository interface {
	BillRepository
	OperationRepository
	LinkRepository
	LinkRunRepository
	Close() error
}

// BillRepository handles bills
type BillRepository interface {
	// SaveBill inserts or replaces a bill
	SaveBill(ctx context.Context, bill *billing.Bill) error

	// GetBill retrieves a bill by ID
	GetBill(ctx context.Context, id string) (*billing.Bill, error)

	// ListBills returns every stored bill ordered by ID
	ListBills(ctx context.Context) ([]*billing.Bill, error)

	// FindBills returns bills matching the given filters with pagination
	FindBills(ctx context.Context, filters BillFilters) (*BillListResult, error)
}

// OperationRepository handles bank operations and their reimbursements
type OperationRepository interface {
	// SaveOperations inserts or replaces operations, reimbursements included
	SaveOperations(ctx context.Context, ops []*billing.Operation) error

	// ImportOperations upserts bank records without dropping stored links
	ImportOperations(ctx context.Context, ops []*billing.Operation) error

	// GetOperation retrieves an operation by ID
	GetOperation(ctx context.Context, id string) (*billing.Operation, error)

	// ListOperations returns operations inside the filter, ordered by date
	ListOperations(ctx context.Context, filter linker.OperationFilter) ([]*billing.Operation, error)
}

// LinkRepository handles the bill/operation links
type LinkRepository interface {
	// SaveChange stores a link and the operations it touched in one transaction
	SaveChange(ctx context.Context, change linker.Change) error

	// ListLinks returns links matching the filters, newest first
	ListLinks(ctx context.Context, filters LinkFilters) ([]billing.Link, error)

	// GetStats returns aggregate counts
	GetStats(ctx context.Context) (*Stats, error)
}

// LinkRunRepository handles link run tracking
type LinkRunRepository interface {
	// StartLinkRun records the start of a run
	StartLinkRun(ctx context.Context, run *LinkRun) error

	// CompleteLinkRun records the outcome of a run. A non-nil runErr marks it failed.
	CompleteLinkRun(ctx context.Context, runID string, counts RunCounts, runErr error) error

	// ListLinkRuns returns recent runs, newest first
	ListLinkRuns(ctx context.Context, limit int) ([]LinkRun, error)

	// GetLinkRun retrieves a run by ID
	GetLinkRun(ctx context.Context, id string) (*LinkRun, error)
}
