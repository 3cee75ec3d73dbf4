package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// TaskResult is the per-task record written to the JSONL trace. It lets a
// reader see exactly how far a run proceeded before failing.
type TaskResult struct {
	RunID     string    `json:"run_id"`
	TaskIndex int       `json:"task_index"`
	TaskName  string    `json:"task_name,omitempty"`
	Status    string    `json:"status"` // done, skipped, error
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Error     string    `json:"error,omitempty"`
}

// TraceEvent wraps a TaskResult for JSONL trace output with extra metadata.
type TraceEvent struct {
	Type      string      `json:"type"` // task_result
	Timestamp time.Time   `json:"timestamp"`
	RunID     string      `json:"run_id"`
	Result    *TaskResult `json:"result"`
}

// TasksSummary counts task results by status.
type TasksSummary struct {
	Total   int `yaml:"total"   json:"total"`
	Done    int `yaml:"done"    json:"done"`
	Skipped int `yaml:"skipped" json:"skipped"`
	Failed  int `yaml:"failed"  json:"failed"`
}

// RunSummary records the metadata for one engine run, written as YAML next
// to the trace after the run completes (or fails).
type RunSummary struct {
	RunID     string       `yaml:"run_id"`
	Process   string       `yaml:"process"`
	StartedAt string       `yaml:"started_at"`
	EndedAt   string       `yaml:"ended_at"`
	Succeeded bool         `yaml:"succeeded"`
	Error     string       `yaml:"error,omitempty"`
	Tasks     TasksSummary `yaml:"tasks"`
}

// TraceWriter writes TaskResult events to a JSONL trace file.
type TraceWriter struct {
	file   *os.File
	writer *bufio.Writer
	enc    *json.Encoder
}

// NewTraceWriter creates a trace writer that appends to the given file.
func NewTraceWriter(path string) (*TraceWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	w := bufio.NewWriter(f)
	return &TraceWriter{
		file:   f,
		writer: w,
		enc:    json.NewEncoder(w),
	}, nil
}

// Write appends a TaskResult as a JSONL event and flushes to disk.
func (tw *TraceWriter) Write(result *TaskResult) error {
	event := TraceEvent{
		Type:      "task_result",
		Timestamp: time.Now(),
		RunID:     result.RunID,
		Result:    result,
	}
	if err := tw.enc.Encode(event); err != nil {
		return fmt.Errorf("encode trace event: %w", err)
	}
	// Flush and sync at task boundaries
	if err := tw.writer.Flush(); err != nil {
		return fmt.Errorf("flush trace: %w", err)
	}
	if err := tw.file.Sync(); err != nil {
		return fmt.Errorf("sync trace: %w", err)
	}
	return nil
}

// Close flushes and closes the trace file.
func (tw *TraceWriter) Close() error {
	if err := tw.writer.Flush(); err != nil {
		return err
	}
	return tw.file.Close()
}

// WriteRunSummary writes a run summary as YAML to the given path.
func WriteRunSummary(path string, s *RunSummary) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write run summary: %w", err)
	}
	return nil
}
