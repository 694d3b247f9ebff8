package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/eshaffer321/bill-linker/internal/application/linker"
	"github.com/eshaffer321/bill-linker/internal/domain/matcher"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/storage"
)

// PrintHeader prints the application header
func PrintHeader(w io.Writer, dryRun bool) {
	mode := "PRODUCTION"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Fprintf(w, "bill-linker (%s mode)\n", mode)
}

// PrintConfiguration prints the matching options of a pass
func PrintConfiguration(w io.Writer, opts matcher.Options) {
	fmt.Fprintf(w, "Window: -%d/+%d days | Deltas: %s/%s (%s)",
		opts.PastWindow, opts.FutureWindow,
		opts.MinAmountDelta, opts.MaxAmountDelta, opts.DeltaMode)
	if len(opts.Identifiers) > 0 {
		fmt.Fprintf(w, " | Identifiers: %s (distance %d)",
			strings.Join(opts.Identifiers, ", "), opts.IdentifierDistance)
	}
	if opts.AllowUncategorized {
		fmt.Fprint(w, " | Uncategorized: allowed")
	}
	fmt.Fprint(w, "\n\n")
}

// PrintLinkSummary prints the report of a pass. stats may be nil.
func PrintLinkSummary(w io.Writer, report *linker.Report, stats *storage.Stats) {
	sum := report.Summary()
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Summary: Bills=%d Matched=%d Unmatched=%d Skipped=%d Errors=%d Links=%d (%s)\n",
		sum.Bills, sum.Matched, sum.Unmatched, sum.Skipped, sum.Errored, sum.Links,
		report.Duration().Round(time.Millisecond))

	if len(report.Matched) > 0 {
		fmt.Fprintln(w, "\nLinked:")
		for _, m := range report.Matched {
			for _, s := range m.Selections {
				fmt.Fprintf(w, "  %s -> %s [%s via %s, %.0f days off, diff %s]\n",
					m.BillID, s.Link.OperationID, s.Link.Kind, s.Path,
					s.DateDiffDays, s.AmountDiff)
			}
		}
	}

	if len(report.Unmatched) > 0 {
		fmt.Fprintln(w, "\nUnmatched:")
		for _, u := range report.Unmatched {
			fmt.Fprintf(w, "  - %s (%s): %s\n", u.BillID, u.Kind, u.Reason)
		}
	}

	// Print errors if any
	if len(report.Errored) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, e := range report.Errored {
			fmt.Fprintf(w, "  - %v\n", e)
		}
	}

	if stats != nil && stats.Bills > 0 {
		fmt.Fprintf(w, "\nAll-Time Stats: Bills=%d Linked=%d Links=%d Amount=%s Runs=%d\n",
			stats.Bills,
			stats.LinkedBills,
			stats.Links,
			stats.LinkedAmount.StringFixed(2),
			stats.Runs)
	}

	if !report.DryRun && sum.Links > 0 {
		fmt.Fprintln(w, "\nLinking completed successfully.")
	}
}
