package capture

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"livecap/internal/config"
	"livecap/internal/services"
)

// Executor records address into outputPath, blocking until the recording ends.
type Executor interface {
	Capture(ctx context.Context, address, outputPath string) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, address, outputPath string) error

func (f ExecutorFunc) Capture(ctx context.Context, address, outputPath string) error {
	return f(ctx, address, outputPath)
}

// CommandExecutor runs an external binary. Its stdout and stderr go to the
// null device.
type CommandExecutor struct {
	Binary string
	Args   []string
}

// NewCommandExecutor builds an executor for binary. A nil args slice selects
// the stream-copy ffmpeg invocation.
func NewCommandExecutor(binary string, args []string) *CommandExecutor {
	if len(args) == 0 {
		args = config.DefaultCaptureArgs()
	}
	return &CommandExecutor{Binary: binary, Args: append([]string(nil), args...)}
}

func (e *CommandExecutor) Capture(ctx context.Context, address, outputPath string) error {
	if strings.TrimSpace(e.Binary) == "" {
		return services.Wrap(services.ErrCapture, component, "spawn", "executor not configured", nil)
	}
	cmd := exec.CommandContext(ctx, e.Binary, e.ExpandArgs(address, outputPath)...)
	// nil Stdin/Stdout/Stderr attach the null device.
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return services.Wrap(services.ErrCapture, component, "executor", fmt.Sprintf("exit status %d", exitErr.ExitCode()), err)
		}
		return services.Wrap(services.ErrCapture, component, "spawn", e.Binary, err)
	}
	return nil
}

// ExpandArgs substitutes the input and output placeholders.
func (e *CommandExecutor) ExpandArgs(address, outputPath string) []string {
	replacer := strings.NewReplacer(config.InputPlaceholder, address, config.OutputPlaceholder, outputPath)
	out := make([]string, len(e.Args))
	for i, arg := range e.Args {
		out[i] = replacer.Replace(arg)
	}
	return out
}
