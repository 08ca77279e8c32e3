package buildkit

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Executor abstracts packager invocation for testability.
type Executor interface {
	// Run executes the binary and returns captured standard error. A non-nil
	// error indicates a non-zero exit or a failure to start; stderr is
	// returned in both cases so callers can surface the tool's own message.
	Run(ctx context.Context, binary string, args []string, workDir string) (string, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, workDir string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	if workDir != "" {
		cmd.Dir = workDir
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = nil

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stderr.String(), fmt.Errorf("packager timed out: %w", ctxErr)
		}
		return stderr.String(), fmt.Errorf("run packager: %w", err)
	}
	return stderr.String(), nil
}
