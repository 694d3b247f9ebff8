package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bill-linker/internal/application/linker"
	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	mu         sync.Mutex
	bills      map[string]*billing.Bill
	operations map[string]*billing.Operation
	links      []billing.Link
	runs       map[string]*LinkRun

	// Hooks for test assertions
	SaveChangeCalls  int
	LastChange       *linker.Change
	StartRunCalled   bool
	CompleteRunCalls int
	LastRunCounts    RunCounts

	// Error injection for testing error paths
	SaveBillErr       error
	ListBillsErr      error
	SaveOperationsErr error
	ListOperationsErr error
	SaveChangeErr     error
	GetStatsErr       error
	StartRunErr       error
	CompleteRunErr    error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		bills:      make(map[string]*billing.Bill),
		operations: make(map[string]*billing.Operation),
		runs:       make(map[string]*LinkRun),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// SaveBill stores a copy of the bill
func (m *MockRepository) SaveBill(_ context.Context, bill *billing.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveBillErr != nil {
		return m.SaveBillErr
	}
	copied := *bill
	copied.Identifiers = append([]string(nil), bill.Identifiers...)
	m.bills[bill.ID] = &copied
	return nil
}

// GetBill returns the stored bill
func (m *MockRepository) GetBill(_ context.Context, id string) (*billing.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok {
		return nil, fmt.Errorf("bill %s: %w", id, ErrNotFound)
	}
	copied := *b
	return &copied, nil
}

// ListBills returns every bill ordered by ID
func (m *MockRepository) ListBills(_ context.Context) ([]*billing.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListBillsErr != nil {
		return nil, m.ListBillsErr
	}
	return m.sortedBills(func(*billing.Bill) bool { return true }), nil
}

// FindBills filters and paginates bills in memory
func (m *MockRepository) FindBills(_ context.Context, filters BillFilters) (*BillListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListBillsErr != nil {
		return nil, m.ListBillsErr
	}
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	vendor := strings.ToLower(filters.Vendor)
	all := m.sortedBills(func(b *billing.Bill) bool {
		if filters.Type != "" && b.Type != filters.Type {
			return false
		}
		return vendor == "" || strings.Contains(strings.ToLower(b.Vendor), vendor)
	})

	start := min(filters.Offset, len(all))
	end := min(start+filters.Limit, len(all))
	return &BillListResult{
		Bills:      all[start:end],
		TotalCount: len(all),
		Limit:      filters.Limit,
		Offset:     filters.Offset,
	}, nil
}

func (m *MockRepository) sortedBills(keep func(*billing.Bill) bool) []*billing.Bill {
	out := make([]*billing.Bill, 0, len(m.bills))
	for _, b := range m.bills {
		if keep(b) {
			copied := *b
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SaveOperations stores copies of the operations
func (m *MockRepository) SaveOperations(_ context.Context, ops []*billing.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveOperationsErr != nil {
		return m.SaveOperationsErr
	}
	for _, op := range ops {
		m.operations[op.ID] = cloneOperation(op)
	}
	return nil
}

// ImportOperations stores copies, keeping the link state of known operations
// when the record carries none
func (m *MockRepository) ImportOperations(_ context.Context, ops []*billing.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveOperationsErr != nil {
		return m.SaveOperationsErr
	}
	for _, op := range ops {
		stored := cloneOperation(op)
		if existing, ok := m.operations[op.ID]; ok {
			if len(stored.Reimbursements) == 0 {
				stored.Reimbursements = existing.Reimbursements
			}
			if len(stored.BillIDs) == 0 {
				stored.BillIDs = existing.BillIDs
			}
		}
		m.operations[op.ID] = stored
	}
	return nil
}

// GetOperation returns the stored operation
func (m *MockRepository) GetOperation(_ context.Context, id string) (*billing.Operation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.operations[id]
	if !ok {
		return nil, fmt.Errorf("operation %s: %w", id, ErrNotFound)
	}
	return cloneOperation(op), nil
}

// ListOperations returns copies of the operations inside the filter
func (m *MockRepository) ListOperations(_ context.Context, filter linker.OperationFilter) ([]*billing.Operation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListOperationsErr != nil {
		return nil, m.ListOperationsErr
	}

	out := make([]*billing.Operation, 0, len(m.operations))
	for _, op := range m.operations {
		inside := (filter.From.IsZero() || !op.Date.Before(filter.From)) &&
			(filter.To.IsZero() || !op.Date.After(filter.To)) &&
			(filter.AccountID == "" || op.AccountID == filter.AccountID)
		if !inside && !linker.ReferencesAny(op, filter.BillIDs) {
			continue
		}
		out = append(out, cloneOperation(op))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SaveChange stores the link and operation copies
func (m *MockRepository) SaveChange(_ context.Context, change linker.Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveChangeCalls++
	m.LastChange = &change
	if m.SaveChangeErr != nil {
		return m.SaveChangeErr
	}
	for _, existing := range m.links {
		if existing.BillID == change.Link.BillID &&
			existing.OperationID == change.Link.OperationID &&
			existing.Kind == change.Link.Kind {
			return fmt.Errorf("link %s/%s/%s already exists", existing.BillID, existing.OperationID, existing.Kind)
		}
	}
	for _, op := range change.Operations {
		m.operations[op.ID] = cloneOperation(op)
	}
	m.links = append(m.links, change.Link)
	return nil
}

// ListLinks filters links in memory, newest first
func (m *MockRepository) ListLinks(_ context.Context, filters LinkFilters) ([]billing.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	var out []billing.Link
	for i := len(m.links) - 1; i >= 0; i-- {
		l := m.links[i]
		if filters.BillID != "" && l.BillID != filters.BillID {
			continue
		}
		if filters.OperationID != "" && l.OperationID != filters.OperationID {
			continue
		}
		if filters.RunID != "" && l.RunID != filters.RunID {
			continue
		}
		out = append(out, l)
	}

	start := min(filters.Offset, len(out))
	end := min(start+filters.Limit, len(out))
	return out[start:end], nil
}

// GetStats computes the aggregate counts in memory
func (m *MockRepository) GetStats(_ context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetStatsErr != nil {
		return nil, m.GetStatsErr
	}

	stats := &Stats{
		Bills:        len(m.bills),
		Operations:   len(m.operations),
		Links:        len(m.links),
		Runs:         len(m.runs),
		LinkedAmount: decimal.Zero,
	}
	linked := make(map[string]bool)
	for _, l := range m.links {
		linked[l.BillID] = true
		if l.Kind == billing.LinkCredit {
			stats.CreditLinks++
			continue
		}
		stats.DebitLinks++
		stats.LinkedAmount = stats.LinkedAmount.Add(l.Amount)
	}
	stats.LinkedBills = len(linked)
	for _, r := range m.runs {
		if stats.LastRunStarted == nil || r.StartedAt.After(*stats.LastRunStarted) {
			started := r.StartedAt
			stats.LastRunStarted = &started
		}
	}
	return stats, nil
}

// StartLinkRun records a run in memory
func (m *MockRepository) StartLinkRun(_ context.Context, run *LinkRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartRunCalled = true
	if m.StartRunErr != nil {
		return m.StartRunErr
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = RunStatusRunning
	}
	copied := *run
	m.runs[run.ID] = &copied
	return nil
}

// CompleteLinkRun updates a run in memory
func (m *MockRepository) CompleteLinkRun(_ context.Context, runID string, counts RunCounts, runErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteRunCalls++
	m.LastRunCounts = counts
	if m.CompleteRunErr != nil {
		return m.CompleteRunErr
	}
	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("link run %s: %w", runID, ErrNotFound)
	}
	now := time.Now()
	run.CompletedAt = &now
	run.Bills = counts.Bills
	run.Matched = counts.Matched
	run.Unmatched = counts.Unmatched
	run.Skipped = counts.Skipped
	run.Errored = counts.Errored
	run.LinksCreated = counts.LinksCreated
	run.Status = RunStatusCompleted
	if runErr != nil {
		run.Status = RunStatusFailed
		run.ErrorMessage = runErr.Error()
	}
	return nil
}

// ListLinkRuns returns runs newest first
func (m *MockRepository) ListLinkRuns(_ context.Context, limit int) ([]LinkRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	out := make([]LinkRun, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetLinkRun returns a stored run
func (m *MockRepository) GetLinkRun(_ context.Context, id string) (*LinkRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("link run %s: %w", id, ErrNotFound)
	}
	copied := *run
	return &copied, nil
}

// Links returns every stored link in insertion order
func (m *MockRepository) Links() []billing.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]billing.Link(nil), m.links...)
}

func cloneOperation(op *billing.Operation) *billing.Operation {
	copied := *op
	copied.Reimbursements = append([]billing.Reimbursement(nil), op.Reimbursements...)
	copied.BillIDs = append([]string(nil), op.BillIDs...)
	return &copied
}
