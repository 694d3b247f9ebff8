package linker

import (
	"context"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

// Change is everything that must be persisted for one new link: the link
// itself and the operations it annotated.
type Change struct {
	Link       billing.Link
	Operations []*billing.Operation
}

// Committer durably records a Change. The linker does not retry; a
// Committer that wants retries implements them itself.
type Committer interface {
	Commit(ctx context.Context, change Change) error
}

// CommitFunc adapts a plain function to Committer.
type CommitFunc func(ctx context.Context, change Change) error

// Commit calls f.
func (f CommitFunc) Commit(ctx context.Context, change Change) error {
	return f(ctx, change)
}

// DryRunCommitter accepts every change without writing anything.
type DryRunCommitter struct{}

// Commit does nothing.
func (DryRunCommitter) Commit(context.Context, Change) error {
	return nil
}
