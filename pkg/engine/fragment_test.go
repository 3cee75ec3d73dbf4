package engine

import (
	"errors"
	"strings"
	"testing"
)

func TestCompileUnit_EmptySource(t *testing.T) {
	if _, err := CompileUnit("tasks[0].intro_message", "   "); err == nil {
		t.Fatal("expected error for empty fragment")
	}
}

func TestCompileUnit_Malformed(t *testing.T) {
	_, err := CompileUnit("tasks[0].task_steps[0]", `1 +`)
	if err == nil {
		t.Fatal("expected compile error")
	}
	if !strings.Contains(err.Error(), "tasks[0].task_steps[0]") {
		t.Errorf("error should name the unit: %v", err)
	}
}

func TestEvaluate_Success(t *testing.T) {
	u, err := CompileUnit("u", "1 + 2")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	out, err := u.Evaluate(NewContext())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if out != 3 {
		t.Errorf("result = %v, want 3", out)
	}
	if !u.Executed || u.Failed {
		t.Errorf("executed=%v failed=%v, want true/false", u.Executed, u.Failed)
	}
	if u.Result != 3 {
		t.Errorf("stored result = %v, want 3", u.Result)
	}
}

func TestEvaluate_Failure(t *testing.T) {
	ec := NewContext()
	ec.Install(map[string]any{
		"boom": func() (any, error) { return nil, errors.New("deliberate failure") },
	})

	u, err := CompileUnit("u", "boom()")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if _, err := u.Evaluate(ec); err == nil {
		t.Fatal("expected evaluation error")
	}
	if !u.Executed {
		t.Error("unit should be marked executed even on failure")
	}
	if !u.Failed || u.ErrorDetail == nil {
		t.Errorf("failed=%v errorDetail=%v", u.Failed, u.ErrorDetail)
	}
	if u.Result != nil {
		t.Errorf("result should be unset on failure, got %v", u.Result)
	}
}

// TestEvaluate_NeverRerun verifies a unit is evaluated at most once: the
// second call returns the captured outcome without running the fragment.
func TestEvaluate_NeverRerun(t *testing.T) {
	calls := 0
	ec := NewContext()
	ec.Install(map[string]any{
		"tick": func() any { calls++; return calls },
	})

	u, err := CompileUnit("u", "tick()")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	first, err := u.Evaluate(ec)
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	second, err := u.Evaluate(ec)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if calls != 1 {
		t.Errorf("fragment ran %d times, want 1", calls)
	}
	if first != second {
		t.Errorf("second evaluate = %v, want cached %v", second, first)
	}
}

func TestEvaluate_FailureIsSticky(t *testing.T) {
	calls := 0
	ec := NewContext()
	ec.Install(map[string]any{
		"flaky": func() (any, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("first call fails")
			}
			return "ok", nil
		},
	})

	u, _ := CompileUnit("u", "flaky()")
	if _, err := u.Evaluate(ec); err == nil {
		t.Fatal("expected first evaluation to fail")
	}
	if _, err := u.Evaluate(ec); err == nil {
		t.Fatal("second evaluation should return the captured failure")
	}
	if calls != 1 {
		t.Errorf("fragment ran %d times, want 1", calls)
	}
}

// TestEvaluate_GetIsContextBuiltin pins get to the context's one-argument
// function: the expression language has a two-argument get of its own that
// must not win name resolution, at compile time (top-level call) or at
// evaluation (nested call).
func TestEvaluate_GetIsContextBuiltin(t *testing.T) {
	ec := NewContext()
	ec.Set("x", 7)

	u, err := CompileUnit("u", `get("x")`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	out, err := u.Evaluate(ec)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if out != 7 {
		t.Errorf("result = %v, want 7", out)
	}

	nested, err := CompileUnit("nested", `get("x") * 2`)
	if err != nil {
		t.Fatalf("compile nested: %v", err)
	}
	out, err = nested.Evaluate(ec)
	if err != nil {
		t.Fatalf("evaluate nested: %v", err)
	}
	if out != 14 {
		t.Errorf("nested result = %v, want 14", out)
	}
}

func TestEvaluate_ContextVariables(t *testing.T) {
	ec := NewContext()
	ec.Set("root", "/srv/build")

	u, _ := CompileUnit("u", `root + "/bin"`)
	out, err := u.Evaluate(ec)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if out != "/srv/build/bin" {
		t.Errorf("result = %v", out)
	}
}
