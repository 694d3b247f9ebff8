package main

import (
	"fmt"
	"os"

	"github.com/eshaffer321/bill-linker/internal/cli"
)

func main() {
	flags := cli.ParseServeFlags()

	cfg, err := cli.LoadConfig(flags.ConfigFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := cli.RunServe(cfg, flags); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}
