// Package main provides the mast-tui binary — Bubble Tea script viewer.
package main

import (
	"fmt"
	"os"

	"github.com/maglevlabs/mast/pkg/storage"
	"github.com/maglevlabs/mast/pkg/tui"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: mast-tui <script.json> [--compact] [--migrate]")
		os.Exit(1)
	}

	filePath := os.Args[1]
	compact := false
	autoMigrate := false

	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--compact":
			compact = true
		case "--migrate":
			autoMigrate = true
		default:
			fmt.Fprintf(os.Stderr, "Unknown flag %q\n", os.Args[i])
			os.Exit(1)
		}
	}

	s, err := storage.LoadScript(filePath, autoMigrate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(tui.Config{Script: s, Path: filePath, Compact: compact}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
