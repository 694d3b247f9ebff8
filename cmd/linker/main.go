package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eshaffer321/bill-linker/internal/cli"
)

func main() {
	flags := cli.ParseLinkFlags()

	cfg, err := cli.LoadConfig(flags.ConfigFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Bills not reached before an interrupt are reported unmatched
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.RunLink(ctx, cfg, flags, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "linker: %v\n", err)
		os.Exit(1)
	}
}
