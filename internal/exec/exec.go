// Package exec runs the external tools that produce tracefiles, such as
// "lcov --capture".
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ExecutionResult holds the outcome of a command execution.
type ExecutionResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor defines an interface for running external commands.
// This allows for mocking in tests.
type Executor interface {
	Run(ctx context.Context, command string, args ...string) (*ExecutionResult, error)
}

// CommandExecutor is a concrete implementation of the Executor interface
// that runs actual commands on the host system.
type CommandExecutor struct{}

// NewCommandExecutor creates a new CommandExecutor.
func NewCommandExecutor() *CommandExecutor {
	return &CommandExecutor{}
}

// Run executes the given command and returns its result.
// A non-zero exit code is not an error; a command that cannot be started
// or is killed by ctx is.
func (e *CommandExecutor) Run(ctx context.Context, command string, args ...string) (*ExecutionResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return nil, err
	}

	return &ExecutionResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}, nil
}

// Capture runs a shell command line and returns its standard output, the
// tracefile. A non-zero exit code fails with the command's stderr.
func Capture(ctx context.Context, e Executor, commandLine string) (string, error) {
	if strings.TrimSpace(commandLine) == "" {
		return "", errors.New("empty capture command")
	}

	result, err := e.Run(ctx, "sh", "-c", commandLine)
	if err != nil {
		return "", fmt.Errorf("failed to run %q: %w", commandLine, err)
	}
	if result.ExitCode != 0 {
		return "", fmt.Errorf("%q exited with code %d: %s", commandLine, result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return result.Stdout, nil
}
