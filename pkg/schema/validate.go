package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// APIVersion is the recognized document version.
const APIVersion = "taskprocess/v1"

// ValidationError represents a single validation error with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // JSON-path-like location (e.g., "tasks[0].task_steps")
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

// HasErrors reports whether the list contains at least one error-severity entry.
func HasErrors(errs []*ValidationError) bool {
	for _, e := range errs {
		if e.Severity == "error" {
			return true
		}
	}
	return false
}

// ValidateFile performs the full 3-phase validation pipeline on a document file.
// Phase 1: Structural (strict YAML decode)
// Phase 2: Semantic (JSON Schema validation)
// Phase 3: Domain (custom Go rules)
func ValidateFile(path string) (*TaskProcess, []*ValidationError) {
	tp, err := LoadFile(path)
	if err != nil {
		return nil, []*ValidationError{{
			Phase:    "structural",
			Path:     "",
			Message:  err.Error(),
			Severity: "error",
		}}
	}

	errs := Validate(tp)
	if len(errs) > 0 {
		return tp, errs
	}
	return tp, nil
}

// Validate runs the semantic and domain phases on an already-decoded document.
func Validate(tp *TaskProcess) []*ValidationError {
	var all []*ValidationError
	all = append(all, validateSemantic(tp)...)
	all = append(all, ValidateDomain(tp)...)
	return all
}

// validateSemantic validates the document against the generated JSON Schema.
func validateSemantic(tp *TaskProcess) []*ValidationError {
	semErr := func(msg string) []*ValidationError {
		return []*ValidationError{{Phase: "semantic", Path: "", Message: msg, Severity: "error"}}
	}

	data, err := json.Marshal(tp)
	if err != nil {
		return semErr(fmt.Sprintf("marshal for schema validation: %v", err))
	}

	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return semErr(fmt.Sprintf("generate schema: %v", err))
	}

	var schemaDoc interface{}
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return semErr(fmt.Sprintf("unmarshal schema: %v", err))
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("taskprocess-v1.json", schemaDoc); err != nil {
		return semErr(fmt.Sprintf("add schema resource: %v", err))
	}
	sch, err := c.Compile("taskprocess-v1.json")
	if err != nil {
		return semErr(fmt.Sprintf("compile schema: %v", err))
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return semErr(fmt.Sprintf("unmarshal document: %v", err))
	}

	if err := sch.Validate(doc); err != nil {
		var errs []*ValidationError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenValidationErrors(ve) {
				errs = append(errs, &ValidationError{
					Phase:    "semantic",
					Path:     strings.Join(cause.InstanceLocation, "/"),
					Message:  fmt.Sprintf("%v", cause.ErrorKind),
					Severity: "error",
				})
			}
		} else {
			errs = semErr(err.Error())
		}
		return errs
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

// ValidateDomain performs Phase 3 domain-level validation. Validation here is
// purely structural: presence and non-blankness of required fragments. It
// never compiles or evaluates the code inside them.
// Returns a slice of errors; empty means valid.
func ValidateDomain(tp *TaskProcess) []*ValidationError {
	var errs []*ValidationError

	addErr := func(path, msg string) {
		errs = append(errs, &ValidationError{Phase: "domain", Path: path, Message: msg, Severity: "error"})
	}

	if tp.APIVersion != APIVersion {
		addErr("apiVersion", fmt.Sprintf("unrecognized apiVersion %q, expected %q", tp.APIVersion, APIVersion))
	}

	if tp.Meta.Name == "" {
		addErr("meta.name", "task process requires a name")
	}

	if len(tp.Tasks) == 0 {
		addErr("tasks", "task process must contain at least one task")
	}

	for i, t := range tp.Tasks {
		prefix := fmt.Sprintf("tasks[%d]", i)
		if strings.TrimSpace(t.IntroMessage) == "" {
			addErr(prefix+".intro_message", fmt.Sprintf("%s requires an intro_message", t.Title(i)))
		}
		if len(t.TaskSteps) == 0 {
			addErr(prefix+".task_steps", fmt.Sprintf("%s requires at least one step", t.Title(i)))
		}
		for j, s := range t.TaskSteps {
			if strings.TrimSpace(s) == "" {
				addErr(fmt.Sprintf("%s.task_steps[%d]", prefix, j), "step code fragment is blank")
			}
		}
		for j, c := range t.PreConditions {
			if strings.TrimSpace(c) == "" {
				addErr(fmt.Sprintf("%s.pre_conditions[%d]", prefix, j), "condition code fragment is blank")
			}
		}
		for j, c := range t.PostConditions {
			if strings.TrimSpace(c) == "" {
				addErr(fmt.Sprintf("%s.post_conditions[%d]", prefix, j), "condition code fragment is blank")
			}
		}
	}

	// Task name uniqueness (only for explicitly named tasks)
	seen := make(map[string]int)
	for i, t := range tp.Tasks {
		if t.Name == "" {
			continue
		}
		if prev, ok := seen[t.Name]; ok {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     fmt.Sprintf("tasks[%d].name", i),
				Message:  fmt.Sprintf("duplicate task name %q (first at tasks[%d])", t.Name, prev),
				Severity: "warning",
			})
		}
		seen[t.Name] = i
	}

	validatePairs := func(path string, pairs []VariableMapping) {
		for i, p := range pairs {
			if p.ScriptVariable == "" {
				addErr(fmt.Sprintf("%s[%d].script_variable", path, i), "variable name must be non-empty")
			}
			if p.ProcessVariable == "" {
				addErr(fmt.Sprintf("%s[%d].process_variable", path, i), "variable name must be non-empty")
			}
		}
	}
	validatePairs("import_variables", tp.ImportVariables)
	validatePairs("export_variables", tp.ExportVariables)

	return errs
}
