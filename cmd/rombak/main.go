// Package main is the entry point for the rombak CLI.
package main

import (
	"fmt"
	"os"

	"github.com/thoreinstein/rombak/cmd/rombak/commands"
	"github.com/thoreinstein/rombak/internal/errors"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var exitErr *errors.ExitError
		if errors.As(err, &exitErr) && exitErr.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "%s\n", exitErr.Suggestion)
		}
		os.Exit(errors.Code(err))
	}
}
