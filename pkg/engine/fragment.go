// Package engine implements the declarative task workflow engine: action
// units, condition groups, the task lifecycle, the isolated execution
// context with import/export variable marshalling, and the process driver.
package engine

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ActionUnit is a deferred, named fragment of executable logic together with
// its captured outcome. Units are created at load time (compiling the source
// aborts the load on error) and evaluated at most once per run.
type ActionUnit struct {
	Name   string
	Source string

	Executed    bool
	Result      any
	Failed      bool
	ErrorDetail error

	program *vm.Program
}

// CompileUnit compiles a code fragment into an ActionUnit. The fragment is
// compiled without a typed environment so it can reference any context
// variable; name resolution happens at evaluation time.
func CompileUnit(name, source string) (*ActionUnit, error) {
	src := strings.TrimSpace(source)
	if src == "" {
		return nil, fmt.Errorf("%s: empty code fragment", name)
	}
	// The context installs a one-argument get; expr's two-argument builtin
	// of the same name must not shadow it.
	prog, err := expr.Compile(src, expr.DisableBuiltin("get"))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return &ActionUnit{Name: name, Source: src, program: prog}, nil
}

// Evaluate runs the fragment against the execution context. The unit is
// marked executed before the fragment runs, so a crash mid-evaluation is
// still recorded as attempted. A unit is never re-run: a second call
// returns the captured outcome.
func (u *ActionUnit) Evaluate(ec *Context) (any, error) {
	if u.Executed {
		if u.Failed {
			return nil, u.ErrorDetail
		}
		return u.Result, nil
	}
	u.Executed = true

	out, err := expr.Run(u.program, ec.env())
	if err != nil {
		u.Failed = true
		u.ErrorDetail = fmt.Errorf("evaluate %s: %w", u.Name, err)
		return nil, u.ErrorDetail
	}
	u.Result = out
	return out, nil
}
