package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validProcess() *TaskProcess {
	return &TaskProcess{
		APIVersion: APIVersion,
		Meta:       Meta{Name: "test"},
		Tasks: []TaskDef{
			{IntroMessage: `"starting"`, TaskSteps: []string{`set("x", 1)`}},
		},
	}
}

func TestValidate_ValidProcess(t *testing.T) {
	if errs := Validate(validProcess()); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidate_MissingTasks(t *testing.T) {
	tp := validProcess()
	tp.Tasks = nil
	errs := Validate(tp)
	if !HasErrors(errs) {
		t.Fatal("expected errors for missing tasks")
	}
	found := false
	for _, e := range errs {
		if strings.Contains(e.Path, "tasks") || strings.Contains(e.Message, "task") {
			found = true
		}
	}
	if !found {
		t.Errorf("no error mentions tasks: %v", errs)
	}
}

func TestValidate_MissingTaskSteps(t *testing.T) {
	tp := validProcess()
	tp.Tasks[0].TaskSteps = nil
	errs := Validate(tp)
	if !HasErrors(errs) {
		t.Fatal("expected errors for missing task_steps")
	}
	found := false
	for _, e := range errs {
		if strings.Contains(e.Path, "task_steps") {
			found = true
		}
	}
	if !found {
		t.Errorf("no error located at task_steps: %v", errs)
	}
}

func TestValidate_MissingIntroMessage(t *testing.T) {
	tp := validProcess()
	tp.Tasks[0].IntroMessage = "   "
	if errs := Validate(tp); !HasErrors(errs) {
		t.Fatal("expected errors for blank intro_message")
	}
}

func TestValidate_BlankFragments(t *testing.T) {
	tp := validProcess()
	tp.Tasks[0].PreConditions = []string{""}
	tp.Tasks[0].TaskSteps = []string{"set(\"x\", 1)", "  "}
	errs := Validate(tp)
	if !HasErrors(errs) {
		t.Fatal("expected errors for blank fragments")
	}
	// Both the blank condition and the blank step should be reported.
	var paths []string
	for _, e := range errs {
		paths = append(paths, e.Path)
	}
	joined := strings.Join(paths, " ")
	if !strings.Contains(joined, "pre_conditions[0]") || !strings.Contains(joined, "task_steps[1]") {
		t.Errorf("paths = %v", paths)
	}
}

func TestValidate_UnrecognizedAPIVersion(t *testing.T) {
	tp := validProcess()
	tp.APIVersion = "taskprocess/v99"
	if errs := Validate(tp); !HasErrors(errs) {
		t.Fatal("expected errors for unrecognized apiVersion")
	}
}

func TestValidate_EmptyPairNames(t *testing.T) {
	tp := validProcess()
	tp.ImportVariables = []VariableMapping{{ScriptVariable: "", ProcessVariable: "x"}}
	tp.ExportVariables = []VariableMapping{{ScriptVariable: "y", ProcessVariable: ""}}
	errs := Validate(tp)
	if !HasErrors(errs) {
		t.Fatal("expected errors for empty pair names")
	}
}

func TestValidate_DuplicateTaskNamesWarn(t *testing.T) {
	tp := validProcess()
	tp.Tasks = append(tp.Tasks, TaskDef{
		Name: "a", IntroMessage: `"x"`, TaskSteps: []string{"1"},
	}, TaskDef{
		Name: "a", IntroMessage: `"y"`, TaskSteps: []string{"2"},
	})
	errs := Validate(tp)
	if HasErrors(errs) {
		t.Fatalf("duplicate names should warn, not error: %v", errs)
	}
	if len(errs) == 0 {
		t.Fatal("expected a duplicate-name warning")
	}
	if errs[0].Severity != "warning" {
		t.Errorf("severity = %q, want warning", errs[0].Severity)
	}
}

func TestValidateFile_StructuralError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("tasks: [\n"), 0644); err != nil {
		t.Fatalf("write temp doc: %v", err)
	}

	tp, errs := ValidateFile(path)
	if tp != nil {
		t.Error("expected nil process on structural error")
	}
	if len(errs) != 1 || errs[0].Phase != "structural" {
		t.Fatalf("errs = %v", errs)
	}
}

func TestGenerateJSONSchema(t *testing.T) {
	data, err := GenerateJSONSchema()
	if err != nil {
		t.Fatalf("GenerateJSONSchema failed: %v", err)
	}
	s := string(data)
	for _, want := range []string{"task_steps", "intro_message", "import_variables"} {
		if !strings.Contains(s, want) {
			t.Errorf("schema missing %q", want)
		}
	}
}
