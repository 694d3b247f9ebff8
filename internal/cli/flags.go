package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bill-linker/internal/domain/matcher"
)

// LinkFlags are the flags of the linker command. Matching flags only
// override the configured options when they are given on the command line.
type LinkFlags struct {
	ConfigFile         string
	DryRun             bool
	Verbose            bool
	PastWindow         int
	FutureWindow       int
	MinAmountDelta     string
	MaxAmountDelta     string
	DeltaMode          string
	Identifiers        string
	IdentifierDistance int
	AllowUncategorized bool

	set map[string]bool
}

// RegisterLinkFlags defines the linker flags on fs.
func RegisterLinkFlags(fs *flag.FlagSet) *LinkFlags {
	f := &LinkFlags{}
	fs.StringVar(&f.ConfigFile, "config", "", "Configuration file path")
	fs.BoolVar(&f.DryRun, "dry-run", false, "Find links without writing them")
	fs.BoolVar(&f.Verbose, "verbose", false, "Verbose output")
	fs.IntVar(&f.PastWindow, "past-window", 0, "Days before the bill date to search")
	fs.IntVar(&f.FutureWindow, "future-window", 0, "Days after the bill date to search")
	fs.StringVar(&f.MinAmountDelta, "min-delta", "", "Amount delta below the bill amount")
	fs.StringVar(&f.MaxAmountDelta, "max-delta", "", "Amount delta above the bill amount")
	fs.StringVar(&f.DeltaMode, "delta-mode", "", "How deltas apply: percent or absolute")
	fs.StringVar(&f.Identifiers, "identifiers", "", "Comma-separated operation label identifiers")
	fs.IntVar(&f.IdentifierDistance, "identifier-distance", 0, "Maximum edit distance for identifier matches")
	fs.BoolVar(&f.AllowUncategorized, "allow-uncategorized", false, "Let health bills match uncategorized operations")
	return f
}

// ParseLinkFlags parses the linker flags from the command line.
func ParseLinkFlags() *LinkFlags {
	f := RegisterLinkFlags(flag.CommandLine)
	flag.Parse()
	f.MarkSet(flag.CommandLine)
	return f
}

// MarkSet records which flags were given explicitly. Call it after fs is
// parsed.
func (f *LinkFlags) MarkSet(fs *flag.FlagSet) {
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
}

// Apply lays the explicitly given matching flags over opts.
func (f *LinkFlags) Apply(opts matcher.Options) (matcher.Options, error) {
	if f.set["past-window"] {
		opts.PastWindow = f.PastWindow
	}
	if f.set["future-window"] {
		opts.FutureWindow = f.FutureWindow
	}
	if f.set["min-delta"] {
		d, err := decimal.NewFromString(f.MinAmountDelta)
		if err != nil {
			return opts, fmt.Errorf("invalid -min-delta %q: %w", f.MinAmountDelta, err)
		}
		opts.MinAmountDelta = d
	}
	if f.set["max-delta"] {
		d, err := decimal.NewFromString(f.MaxAmountDelta)
		if err != nil {
			return opts, fmt.Errorf("invalid -max-delta %q: %w", f.MaxAmountDelta, err)
		}
		opts.MaxAmountDelta = d
	}
	if f.set["delta-mode"] {
		opts.DeltaMode = matcher.DeltaMode(strings.ToLower(f.DeltaMode))
	}
	if f.set["identifiers"] {
		opts.Identifiers = splitList(f.Identifiers)
	}
	if f.set["identifier-distance"] {
		opts.IdentifierDistance = f.IdentifierDistance
	}
	if f.set["allow-uncategorized"] {
		opts.AllowUncategorized = f.AllowUncategorized
	}
	return opts, opts.Validate()
}

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	ConfigFile string
	Port       int
	Verbose    bool
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags() *ServeFlags {
	flags := &ServeFlags{}
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	flag.IntVar(&flags.Port, "port", 0, "Port to listen on (0 = from config)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// ImportFlags holds the CLI flags for the import command.
type ImportFlags struct {
	ConfigFile string
	Verbose    bool
	Files      []string
}

// ParseImportFlags parses command line flags for the import command. The
// remaining arguments are the files to import.
func ParseImportFlags() *ImportFlags {
	flags := &ImportFlags{}
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] file.json...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	flags.Files = flag.Args()
	return flags
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
