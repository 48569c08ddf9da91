package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"livecap/internal/services"
)

const (
	exitOK = iota
	exitFatal
	exitCommand
)

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process status. Setup and registry
// failures, the ones that stop the orchestrator, exit 1 so a supervisor can
// tell them from a mistyped command or a failed inspection (2).
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case services.IsFatal(err), errors.Is(err, context.Canceled):
		return exitFatal
	default:
		return exitCommand
	}
}
