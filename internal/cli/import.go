package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/eshaffer321/bill-linker/internal/application/importer"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/config"
)

// RunImport loads each file into the configured store. It stops at the
// first file that fails; earlier files stay imported.
func RunImport(ctx context.Context, cfg *config.Config, flags *ImportFlags, w io.Writer) error {
	if len(flags.Files) == 0 {
		return fmt.Errorf("no input files")
	}

	logger := NewLogger(cfg, "import", flags.Verbose)

	store, err := OpenStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	imp := importer.New(store, logger)
	for _, path := range flags.Files {
		result, err := imp.ImportFile(ctx, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: %d bills, %d operations\n", path, result.Bills, result.Operations)
	}
	return nil
}
