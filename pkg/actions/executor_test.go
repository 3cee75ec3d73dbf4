package actions

import (
	"context"
	"runtime"
	"strings"
	"testing"
)

func TestExecExecutor_CapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses unix echo")
	}
	exec := &ExecExecutor{}
	res, err := exec.Execute(context.Background(), "echo", []string{"hello"}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", res.ExitCode)
	}
	if got := strings.TrimSpace(string(res.Stdout)); got != "hello" {
		t.Errorf("stdout = %q, want hello", got)
	}
}

func TestExecExecutor_NonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	exec := &ExecExecutor{}
	res, err := exec.Execute(context.Background(), "sh", []string{"-c", "exit 3"}, nil)
	if err != nil {
		t.Fatalf("non-zero exit should not be an executor error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
}

func TestExecExecutor_CommandNotFound(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("windows falls back to cmd.exe")
	}
	exec := &ExecExecutor{}
	if _, err := exec.Execute(context.Background(), "definitely-not-a-command-xyz", nil, nil); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestCommandResult_Check(t *testing.T) {
	ok := &CommandResult{ExitCode: 0, Stderr: []byte("just noise")}
	if err := ok.Check("true"); err != nil {
		t.Errorf("zero exit should pass: %v", err)
	}

	failed := &CommandResult{ExitCode: 2, Stderr: []byte("fatal: not a repo\n")}
	err := failed.Check("git")
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "code 2") || !strings.Contains(err.Error(), "not a repo") {
		t.Errorf("error = %v", err)
	}

	// stderr empty, detail falls back to stdout
	quiet := &CommandResult{ExitCode: 1, Stdout: []byte("usage: thing\n")}
	if err := quiet.Check("thing"); err == nil || !strings.Contains(err.Error(), "usage: thing") {
		t.Errorf("error = %v", err)
	}
}

func TestDryRunExecutor_RecordsWithoutRunning(t *testing.T) {
	dry := &DryRunExecutor{}
	res, err := dry.Execute(context.Background(), "rm", []string{"-rf", "/important"}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.ExitCode != 0 || string(res.Stdout) != "<dry-run>" {
		t.Errorf("result = %+v", res)
	}
	if len(dry.Commands) != 1 || dry.Commands[0] != "rm -rf /important" {
		t.Errorf("commands = %v", dry.Commands)
	}
}
