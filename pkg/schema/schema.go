// Package schema defines the Go struct types for the task process YAML
// document and provides strict YAML parsing.
package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// TaskProcess is the top-level document defining an automated task workflow.
// Tasks run in document order; import/export variable pairs are the only
// data path between the invoking script scope and the process context.
type TaskProcess struct {
	APIVersion      string            `yaml:"apiVersion" json:"apiVersion" jsonschema:"required,enum=taskprocess/v1"`
	Meta            Meta              `yaml:"meta"       json:"meta"       jsonschema:"required"`
	ImportVariables []VariableMapping `yaml:"import_variables,omitempty" json:"import_variables,omitempty"`
	Tasks           []TaskDef         `yaml:"tasks"      json:"tasks"      jsonschema:"required,minItems=1"`
	ExportVariables []VariableMapping `yaml:"export_variables,omitempty" json:"export_variables,omitempty"`
}

// Meta contains process metadata and optional seed variables.
type Meta struct {
	Name        string            `yaml:"name"                  json:"name" jsonschema:"required"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Vars        map[string]string `yaml:"vars,omitempty"        json:"vars,omitempty"`
}

// VariableMapping pairs a name in the invoking script's scope with a name
// inside the process execution context. Import mappings copy script → context
// before the first task; export mappings copy context → script after the last.
type VariableMapping struct {
	ScriptVariable  string `yaml:"script_variable"  json:"script_variable"  jsonschema:"required"`
	ProcessVariable string `yaml:"process_variable" json:"process_variable" jsonschema:"required"`
}

// TaskDef is one task element: a full lifecycle unit of intro message,
// optional pre-conditions, one or more steps, optional post-conditions and
// an optional exit message. Every field holds a code fragment (expr source);
// conditions must evaluate to a boolean.
type TaskDef struct {
	Name           string   `yaml:"name,omitempty"            json:"name,omitempty"`
	IntroMessage   string   `yaml:"intro_message"             json:"intro_message"  jsonschema:"required"`
	PreConditions  []string `yaml:"pre_conditions,omitempty"  json:"pre_conditions,omitempty"`
	TaskSteps      []string `yaml:"task_steps"                json:"task_steps"     jsonschema:"required,minItems=1"`
	PostConditions []string `yaml:"post_conditions,omitempty" json:"post_conditions,omitempty"`
	ExitMessage    string   `yaml:"exit_message,omitempty"    json:"exit_message,omitempty"`
}

// Title returns the task's display name, falling back to its position.
func (t TaskDef) Title(index int) string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("task %d", index+1)
}

// LoadFile reads and parses a task process YAML file with strict
// unknown-field rejection. Returns the parsed TaskProcess or an error.
func LoadFile(path string) (*TaskProcess, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open task process: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a task process from an io.Reader with strict unknown-field
// rejection (yaml.v3 KnownFields).
func Load(r io.Reader) (*TaskProcess, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var tp TaskProcess
	if err := dec.Decode(&tp); err != nil {
		return nil, fmt.Errorf("decode task process: %w", err)
	}
	return &tp, nil
}
