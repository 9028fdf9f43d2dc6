package main

// Entry point: runs the Cobra command tree and exits non-zero on failure.

import (
	"dtr-image/cmd/commands"
	"fmt"
	"os"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
