// Package actions provides the function surface that task process code
// fragments call: command execution, file operations, environment lookup.
// The engine invokes these opaquely through the execution context.
package actions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// CommandResult holds the output of a single command execution.
type CommandResult struct {
	Stdout   []byte        `json:"stdout"`
	Stderr   []byte        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// Check returns an error describing a non-zero exit, with trimmed stderr
// (or stdout when stderr is empty) as detail. A zero exit returns nil.
func (r *CommandResult) Check(command string) error {
	if r.ExitCode == 0 {
		return nil
	}
	detail := strings.TrimSpace(string(r.Stderr))
	if detail == "" {
		detail = strings.TrimSpace(string(r.Stdout))
	}
	return fmt.Errorf("command %q exited with code %d: %s", command, r.ExitCode, detail)
}

// CommandExecutor abstracts real vs dry-run command execution.
type CommandExecutor interface {
	Execute(ctx context.Context, command string, args []string, env []string) (*CommandResult, error)
}

// ExecExecutor runs commands via os/exec.
type ExecExecutor struct{}

// Execute runs a command with the given arguments and environment.
// On Windows, if the command is not found directly it is retried through
// cmd.exe /C so that shell builtins (echo, set, …) work transparently.
func (r *ExecExecutor) Execute(ctx context.Context, command string, args []string, env []string) (*CommandResult, error) {
	start := time.Now()

	stdout, stderr, err := capture(ctx, command, args, env)
	if err != nil && runtime.GOOS == "windows" && isExecNotFound(err) {
		line := strings.Join(append([]string{command}, args...), " ")
		stdout, stderr, err = capture(ctx, "cmd.exe", []string{"/C", line}, env)
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("execute command %q: %w", command, err)
		}
		exitCode = exitErr.ExitCode()
	}

	return &CommandResult{
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		Duration: time.Since(start),
	}, nil
}

func capture(ctx context.Context, command string, args, env []string) (stdout, stderr []byte, err error) {
	cmd := exec.CommandContext(ctx, command, args...)
	if len(env) > 0 {
		cmd.Env = env
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// isExecNotFound returns true when the error indicates the executable was not found.
func isExecNotFound(err error) bool {
	if err == exec.ErrNotFound {
		return true
	}
	var execErr *exec.Error
	return errors.As(err, &execErr)
}

// DryRunExecutor records the commands it is asked to run and returns
// placeholder output without executing anything.
type DryRunExecutor struct {
	Commands []string
}

func (d *DryRunExecutor) Execute(ctx context.Context, command string, args []string, env []string) (*CommandResult, error) {
	d.Commands = append(d.Commands, strings.TrimSpace(command+" "+strings.Join(args, " ")))
	return &CommandResult{
		Stdout:   []byte("<dry-run>"),
		ExitCode: 0,
	}, nil
}
