package engine

import (
	"errors"
	"fmt"
)

// Context is the isolated variable environment every action unit runs in.
// One Context is created per run and discarded at run end; the import and
// export pair lists are the only sanctioned data path between the host
// scope and the context.
type Context struct {
	vars map[string]any
}

// NewContext creates an empty execution context with the set/get builtins
// installed. set stores a value under a context name (step fragments use it
// to define variables); get reads one back, returning nil when undefined.
func NewContext() *Context {
	c := &Context{vars: make(map[string]any)}
	c.vars["set"] = func(name string, value any) any {
		c.vars[name] = value
		return value
	}
	c.vars["get"] = func(name string) any {
		return c.vars[name]
	}
	return c
}

// Install merges named functions (the action surface) into the context.
// The engine treats these as opaque collaborators.
func (c *Context) Install(funcs map[string]any) {
	for name, fn := range funcs {
		c.vars[name] = fn
	}
}

// Set defines or overwrites a context variable.
func (c *Context) Set(name string, value any) {
	c.vars[name] = value
}

// Lookup reads a context variable.
func (c *Context) Lookup(name string) (any, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// env exposes the variable map for fragment evaluation. Fragments see and
// mutate the live map; nothing outside the context is ambient.
func (c *Context) env() map[string]any {
	return c.vars
}

// VariablePair maps a name in the host scope to a name inside the context.
type VariablePair struct {
	HostName    string
	ContextName string
}

// MissingHostVariableError reports an import pair whose host variable does
// not exist. It aborts the run before any task executes.
type MissingHostVariableError struct {
	Name string
}

func (e *MissingHostVariableError) Error() string {
	return fmt.Sprintf("host variable %q is not defined", e.Name)
}

// MissingContextVariableError reports an export pair whose context variable
// was never defined by task logic.
type MissingContextVariableError struct {
	Name string
}

func (e *MissingContextVariableError) Error() string {
	return fmt.Sprintf("context variable %q is not defined", e.Name)
}

// Import copies each named host value into the context under its mapped
// name. It fails fast on the first missing host variable. Duplicate pairs
// are applied in order; last write wins.
func (c *Context) Import(host map[string]any, pairs []VariablePair) error {
	for _, p := range pairs {
		v, ok := host[p.HostName]
		if !ok {
			return &MissingHostVariableError{Name: p.HostName}
		}
		c.vars[p.ContextName] = v
	}
	return nil
}

// Export copies each named context value back into the host scope under its
// mapped name. Missing context variables are collected rather than aborting
// the loop: steps already executed and their side effects stand, so every
// resolvable pair is still applied before the error is reported.
func (c *Context) Export(host map[string]any, pairs []VariablePair) error {
	var errs []error
	for _, p := range pairs {
		v, ok := c.vars[p.ContextName]
		if !ok {
			errs = append(errs, &MissingContextVariableError{Name: p.ContextName})
			continue
		}
		host[p.HostName] = v
	}
	return errors.Join(errs...)
}
