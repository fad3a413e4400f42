package models

import "time"

// LogEntry is one line of the append-only per-run log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id,omitempty"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// ExecutionContext is the scratch state of one workflow run. A fresh
// context is created for every run and never shared between concurrent
// runs of the same graph.
type ExecutionContext struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	Variables  map[string]any `json:"variables,omitempty"`
	Results    map[string]any `json:"results,omitempty"`
	Logs       []LogEntry     `json:"logs,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// Variable keys attached by the executor on normal completion.
const (
	MetricTotalNodes      = "totalNodes"
	MetricCompletedNodes  = "completedNodes"
	MetricFailedNodes     = "failedNodes"
	MetricExecutionTimeMs = "executionTimeMs"
	MetricSuccessRate     = "successRate"
)

// AppendLog records a log line against the run.
func (e *ExecutionContext) AppendLog(nodeID, level, message string) {
	e.Logs = append(e.Logs, LogEntry{
		Timestamp: time.Now().UTC(),
		NodeID:    nodeID,
		Level:     level,
		Message:   message,
	})
}
