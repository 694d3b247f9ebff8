package main

import (
	"context"
	"fmt"
	"os"

	"github.com/eshaffer321/bill-linker/internal/cli"
)

func main() {
	flags := cli.ParseImportFlags()

	cfg, err := cli.LoadConfig(flags.ConfigFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := cli.RunImport(context.Background(), cfg, flags, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "import: %v\n", err)
		os.Exit(1)
	}
}
