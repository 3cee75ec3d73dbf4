package engine

import (
	"fmt"
	"io"
)

// Reporter receives the engine's semantic events: task start/skip/done,
// step output, fatal errors. Rendering (line formatting, indentation,
// file sinks) is the implementation's concern, not the engine's.
type Reporter interface {
	RunStart(runID, name string)
	TaskStart(t *Task, message string)
	TaskSkipped(t *Task)
	StepRan(t *Task, unit *ActionUnit, result any)
	TaskExit(t *Task, message string)
	TaskDone(t *Task)
	TaskFailed(t *Task, err error)
	RunDone(summary TasksSummary)
}

// NopReporter discards all events. It is the engine default, for embedders
// that only care about the returned error and task states.
type NopReporter struct{}

func (NopReporter) RunStart(string, string)         {}
func (NopReporter) TaskStart(*Task, string)         {}
func (NopReporter) TaskSkipped(*Task)               {}
func (NopReporter) StepRan(*Task, *ActionUnit, any) {}
func (NopReporter) TaskExit(*Task, string)          {}
func (NopReporter) TaskDone(*Task)                  {}
func (NopReporter) TaskFailed(*Task, error)         {}
func (NopReporter) RunDone(TasksSummary)            {}

// ConsoleReporter writes glyph-prefixed progress lines to Out.
type ConsoleReporter struct {
	Out io.Writer
	// ShowStepResults echoes each step's result value when set.
	ShowStepResults bool
}

func (r *ConsoleReporter) RunStart(runID, name string) {
	fmt.Fprintf(r.Out, "▶ %s [%s]\n", name, runID)
}

func (r *ConsoleReporter) TaskStart(t *Task, message string) {
	fmt.Fprintf(r.Out, "\n▶ %s\n", message)
}

func (r *ConsoleReporter) TaskSkipped(t *Task) {
	fmt.Fprintf(r.Out, "  ⊘ %s skipped (pre-conditions not met)\n", t.Name)
}

func (r *ConsoleReporter) StepRan(t *Task, unit *ActionUnit, result any) {
	if r.ShowStepResults && result != nil {
		fmt.Fprintf(r.Out, "  · %v\n", result)
	}
}

func (r *ConsoleReporter) TaskExit(t *Task, message string) {
	fmt.Fprintf(r.Out, "  %s\n", message)
}

func (r *ConsoleReporter) TaskDone(t *Task) {
	fmt.Fprintf(r.Out, "  ✓ %s completed\n", t.Name)
}

func (r *ConsoleReporter) TaskFailed(t *Task, err error) {
	fmt.Fprintf(r.Out, "  ✗ %s: %v\n", t.Name, err)
}

func (r *ConsoleReporter) RunDone(s TasksSummary) {
	fmt.Fprintf(r.Out, "\n✓ Task process completed (%d tasks, %d skipped)\n", s.Total, s.Skipped)
}
