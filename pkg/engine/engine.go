package engine

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ppizarroc/taskproc/pkg/schema"
)

// GenerateRunID creates a run ID in format YYYYMMDDTHHmmss-xxxx.
func GenerateRunID() string {
	ts := time.Now().Format("20060102T150405")
	suffix := make([]byte, 4)
	rand.Read(suffix)
	return fmt.Sprintf("%s-%x", ts, suffix)
}

// Engine is the process driver for one task process run. It owns loading
// results (task list, variable pairs), creates the execution context,
// imports variables, drives the task list in order, and exports variables.
//
// An Engine is single-use: action units record their outcome and are never
// re-evaluated, so reset means constructing a new Engine.
type Engine struct {
	process  *schema.TaskProcess
	tasks    TaskList
	imports  []VariablePair
	exports  []VariablePair
	reporter Reporter
	actions  map[string]any
	traceDir string
	trace    *TraceWriter
	runID    string
	summary  TasksSummary
	ran      bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithReporter sets the event reporter (default: NopReporter).
func WithReporter(r Reporter) Option {
	return func(e *Engine) { e.reporter = r }
}

// WithActions installs named functions into the execution context so code
// fragments can call them. The engine invokes them opaquely.
func WithActions(funcs map[string]any) Option {
	return func(e *Engine) { e.actions = funcs }
}

// WithTraceDir enables run artifacts: a JSONL trace and a YAML run summary
// are written under dir, named by run ID.
func WithTraceDir(dir string) Option {
	return func(e *Engine) { e.traceDir = dir }
}

// New validates the definition and builds the task list and variable pairs,
// compiling every code fragment. Any structural error or uncompilable
// fragment aborts the load; no partial task list is ever returned.
func New(tp *schema.TaskProcess, opts ...Option) (*Engine, error) {
	if errs := schema.Validate(tp); schema.HasErrors(errs) {
		for _, verr := range errs {
			if verr.Severity == "error" {
				return nil, fmt.Errorf("invalid task process: %w", verr)
			}
		}
	}

	e := &Engine{
		process:  tp,
		reporter: NopReporter{},
		runID:    GenerateRunID(),
	}
	for _, opt := range opts {
		opt(e)
	}

	for i, td := range tp.Tasks {
		t, err := buildTask(i, td)
		if err != nil {
			return nil, err
		}
		e.tasks = append(e.tasks, t)
	}

	for _, m := range tp.ImportVariables {
		e.imports = append(e.imports, VariablePair{HostName: m.ScriptVariable, ContextName: m.ProcessVariable})
	}
	for _, m := range tp.ExportVariables {
		e.exports = append(e.exports, VariablePair{HostName: m.ScriptVariable, ContextName: m.ProcessVariable})
	}

	return e, nil
}

// buildTask compiles one task element's fragments into a Task.
func buildTask(index int, td schema.TaskDef) (*Task, error) {
	title := td.Title(index)
	prefix := fmt.Sprintf("tasks[%d]", index)

	intro, err := CompileUnit(prefix+".intro_message", td.IntroMessage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", title, err)
	}

	pre, err := compileGroup(prefix+".pre_conditions", td.PreConditions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", title, err)
	}
	post, err := compileGroup(prefix+".post_conditions", td.PostConditions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", title, err)
	}

	var steps []*ActionUnit
	for j, src := range td.TaskSteps {
		u, err := CompileUnit(fmt.Sprintf("%s.task_steps[%d]", prefix, j), src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", title, err)
		}
		steps = append(steps, u)
	}

	var exit *ActionUnit
	if td.ExitMessage != "" {
		exit, err = CompileUnit(prefix+".exit_message", td.ExitMessage)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", title, err)
		}
	}

	return &Task{
		Name:           title,
		Intro:          intro,
		PreConditions:  pre,
		Steps:          steps,
		PostConditions: post,
		Exit:           exit,
		State:          TaskPending,
	}, nil
}

func compileGroup(prefix string, sources []string) (*ConditionGroup, error) {
	g := &ConditionGroup{}
	for j, src := range sources {
		u, err := CompileUnit(fmt.Sprintf("%s[%d]", prefix, j), src)
		if err != nil {
			return nil, err
		}
		g.Units = append(g.Units, u)
	}
	return g, nil
}

// RunID returns the run identifier generated at load time.
func (e *Engine) RunID() string { return e.runID }

// Tasks returns the task list for post-run inspection of processed/error
// states.
func (e *Engine) Tasks() TaskList { return e.tasks }

// Summary returns the per-status task counts accumulated by Run.
func (e *Engine) Summary() TasksSummary { return e.summary }

// Run executes the task list against the given host scope: create a fresh
// execution context, import variables, execute each task in document order
// stopping at the first fatal error, then export variables. Side effects of
// steps that already ran are never rolled back.
func (e *Engine) Run(host map[string]any) error {
	if e.ran {
		return errors.New("engine has already run; construct a new Engine per run")
	}
	e.ran = true
	started := time.Now()

	// Trace artifacts are created here, not at load: an Engine that is
	// built but never run leaves nothing behind.
	if e.traceDir != "" {
		if err := os.MkdirAll(e.traceDir, 0755); err != nil {
			return fmt.Errorf("create trace directory: %w", err)
		}
		tw, err := NewTraceWriter(filepath.Join(e.traceDir, e.runID+".jsonl"))
		if err != nil {
			return err
		}
		e.trace = tw
	}

	err := e.run(host)

	if e.trace != nil {
		e.trace.Close()
	}
	if e.traceDir != "" {
		s := &RunSummary{
			RunID:     e.runID,
			Process:   e.process.Meta.Name,
			StartedAt: started.UTC().Format(time.RFC3339),
			EndedAt:   time.Now().UTC().Format(time.RFC3339),
			Succeeded: err == nil,
			Tasks:     e.summary,
		}
		if err != nil {
			s.Error = err.Error()
		}
		if werr := WriteRunSummary(filepath.Join(e.traceDir, e.runID+".yaml"), s); werr != nil {
			return errors.Join(err, werr)
		}
	}
	return err
}

func (e *Engine) run(host map[string]any) error {
	ec := NewContext()
	if e.actions != nil {
		ec.Install(e.actions)
	}
	for k, v := range e.process.Meta.Vars {
		ec.Set(k, v)
	}

	e.reporter.RunStart(e.runID, e.process.Meta.Name)

	if err := ec.Import(host, e.imports); err != nil {
		return fmt.Errorf("import variables: %w", err)
	}

	for i, t := range e.tasks {
		startedAt := time.Now()
		skipped, err := t.Execute(ec, e.reporter)

		e.summary.Total++
		status := "done"
		switch {
		case err != nil:
			status = "error"
			e.summary.Failed++
		case skipped:
			status = "skipped"
			e.summary.Skipped++
		default:
			e.summary.Done++
		}

		if e.trace != nil {
			result := &TaskResult{
				RunID:     e.runID,
				TaskIndex: i,
				TaskName:  t.Name,
				Status:    status,
				StartedAt: startedAt,
				EndedAt:   time.Now(),
			}
			if err != nil {
				result.Error = err.Error()
			}
			if terr := e.trace.Write(result); terr != nil {
				return fmt.Errorf("write trace for %s: %w", t.Name, terr)
			}
		}

		if err != nil {
			return fmt.Errorf("%s: %w", t.Name, err)
		}
	}

	if err := ec.Export(host, e.exports); err != nil {
		return fmt.Errorf("export variables: %w", err)
	}

	e.reporter.RunDone(e.summary)
	return nil
}
