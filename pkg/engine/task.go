package engine

import "fmt"

// TaskState tracks a task's progress through its lifecycle.
type TaskState string

const (
	TaskPending    TaskState = "pending"
	TaskIntroRan   TaskState = "intro_ran"
	TaskPreSkipped TaskState = "pre_skipped"
	TaskStepsRan   TaskState = "steps_ran"
	TaskDone       TaskState = "done"
	TaskError      TaskState = "error"
)

// Task is one lifecycle unit: intro message, optional pre-conditions, one or
// more steps, optional post-conditions, optional exit message. A Task is
// built once by the loader and mutated only during a single execution pass.
type Task struct {
	Name           string
	Intro          *ActionUnit
	PreConditions  *ConditionGroup
	Steps          []*ActionUnit
	PostConditions *ConditionGroup
	Exit           *ActionUnit // nil when the task has no exit message

	State     TaskState
	Processed bool
	Errored   bool
}

// Execute drives the task through its lifecycle against the shared context.
// It returns skipped=true when the pre-conditions evaluated to false (the
// one non-fatal negative outcome: the run continues with the next task).
// Any returned error is fatal to the whole run.
func (t *Task) Execute(ec *Context, rep Reporter) (skipped bool, err error) {
	fail := func(err error) (bool, error) {
		t.State = TaskError
		t.Errored = true
		rep.TaskFailed(t, err)
		return false, err
	}

	msg, err := t.Intro.Evaluate(ec)
	if err != nil {
		return fail(fmt.Errorf("intro message: %w", err))
	}
	t.State = TaskIntroRan
	rep.TaskStart(t, fmt.Sprint(msg))

	res, err := t.PreConditions.Evaluate(ec)
	switch res {
	case GroupError:
		return fail(fmt.Errorf("pre-conditions: %w", err))
	case GroupFailed:
		// Pre-conditions gate eligibility: a false result skips the task
		// without error. Post-conditions assert correctness and are fatal.
		t.State = TaskPreSkipped
		rep.TaskSkipped(t)
		return true, nil
	}

	for _, s := range t.Steps {
		out, err := s.Evaluate(ec)
		if err != nil {
			return fail(fmt.Errorf("step %s: %w", s.Name, err))
		}
		rep.StepRan(t, s, out)
	}
	t.State = TaskStepsRan

	res, err = t.PostConditions.Evaluate(ec)
	switch res {
	case GroupError:
		return fail(fmt.Errorf("post-conditions: %w", err))
	case GroupFailed:
		return fail(fmt.Errorf("post-conditions not satisfied"))
	}

	if t.Exit != nil {
		msg, err := t.Exit.Evaluate(ec)
		if err != nil {
			return fail(fmt.Errorf("exit message: %w", err))
		}
		rep.TaskExit(t, fmt.Sprint(msg))
	}

	t.State = TaskDone
	t.Processed = true
	rep.TaskDone(t)
	return false, nil
}

// TaskList is the ordered sequence of tasks built from one definition.
// Order equals document order and is the execution order.
type TaskList []*Task
