package engine

import "fmt"

// GroupResult is the outcome of evaluating a condition group.
//
// GroupFailed (a condition returned boolean false) is a normal negative
// outcome; GroupError (evaluation error or non-boolean result) is a caller
// bug and always fatal. The two must never be conflated.
type GroupResult int

const (
	GroupPassed GroupResult = iota
	GroupFailed
	GroupError
)

func (r GroupResult) String() string {
	switch r {
	case GroupPassed:
		return "passed"
	case GroupFailed:
		return "failed"
	case GroupError:
		return "error"
	}
	return fmt.Sprintf("GroupResult(%d)", int(r))
}

// ConditionGroup is an ordered collection of action units whose results must
// each resolve to a boolean. An empty group is vacuously satisfied.
type ConditionGroup struct {
	Units []*ActionUnit

	// Passed is set only after every unit evaluated to boolean true.
	Passed bool
}

// Evaluate runs the group's units in order, short-circuiting on the first
// unit that errors, returns a non-boolean, or returns false.
func (g *ConditionGroup) Evaluate(ec *Context) (GroupResult, error) {
	for _, u := range g.Units {
		out, err := u.Evaluate(ec)
		if err != nil {
			return GroupError, fmt.Errorf("condition %s: %w", u.Name, err)
		}
		b, ok := out.(bool)
		if !ok {
			return GroupError, fmt.Errorf("condition %s returned %T (%v), want bool", u.Name, out, out)
		}
		if !b {
			return GroupFailed, nil
		}
	}
	g.Passed = true
	return GroupPassed, nil
}
