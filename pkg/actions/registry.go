package actions

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Registry builds the action functions installed into an execution context.
// Fragments call them by name; failures surface as action unit failures.
type Registry struct {
	ctx  context.Context
	exec CommandExecutor
}

// NewRegistry creates a registry that runs commands through exec. The
// context bounds command execution for the whole run (the engine itself
// has no cancellation; a hung command hangs the run unless ctx expires).
func NewRegistry(ctx context.Context, exec CommandExecutor) *Registry {
	return &Registry{ctx: ctx, exec: exec}
}

// Funcs returns the named functions to install into an execution context.
func (r *Registry) Funcs() map[string]any {
	return map[string]any{
		"run":        r.run,
		"fileExists": fileExists,
		"readFile":   readFile,
		"writeFile":  writeFile,
		"copyFile":   copyFile,
		"mkdir":      mkdir,
		"getenv":     os.Getenv,
	}
}

// run executes a command and returns its trimmed stdout. A non-zero exit
// code is an error, failing the calling unit.
func (r *Registry) run(command string, args ...string) (any, error) {
	res, err := r.exec.Execute(r.ctx, command, args, nil)
	if err != nil {
		return nil, err
	}
	if err := res.Check(command); err != nil {
		return nil, err
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func readFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func writeFile(path, data string) (any, error) {
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

func copyFile(src, dst string) (any, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("copy %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("copy to %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return nil, fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return true, nil
}

func mkdir(path string) (any, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", path, err)
	}
	return true, nil
}
