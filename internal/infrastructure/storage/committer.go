package storage

import (
	"context"

	"github.com/eshaffer321/bill-linker/internal/application/linker"
)

// NewCommitter returns a linker.Committer that persists every change through
// repo. Each change is written in its own transaction.
func NewCommitter(repo LinkRepository) linker.Committer {
	return linker.CommitFunc(func(ctx context.Context, change linker.Change) error {
		return repo.SaveChange(ctx, change)
	})
}
