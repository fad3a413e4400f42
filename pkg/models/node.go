package models

import (
	"errors"
	"fmt"
)

// NodeType represents the role of a node inside a workflow graph.
type NodeType string

const (
	NodeTypeTrigger   NodeType = "trigger"
	NodeTypeAction    NodeType = "action"
	NodeTypeCondition NodeType = "condition"
	NodeTypeDelay     NodeType = "delay"
)

// NodeStatus defines the possible states of a node execution, reported
// through progress callbacks.
type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "pending"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusError     NodeStatus = "error"
)

// WorkflowNode represents a node instance in a workflow graph.
type WorkflowNode struct {
	ID        string         `json:"id"        validate:"required"`
	Type      NodeType       `json:"type"      validate:"required"`
	Name      string         `json:"name,omitempty"`
	Service   string         `json:"service,omitempty"`
	Operation string         `json:"operation,omitempty"`
	Config    map[string]any `json:"config,omitempty"`
	Outgoing  []string       `json:"outgoing,omitempty"`
	Enabled   bool           `json:"enabled"`
}

// Connection connects two nodes. The edge list mirrors node Outgoing sets
// so connections can be listed independently of node mutation.
type Connection struct {
	ID       string `json:"id"`
	SourceID string `json:"source_id" validate:"required"`
	TargetID string `json:"target_id" validate:"required"`
}

// ErrInvalidConfigValue is returned when a node config carries a value
// outside the supported scalar set.
var ErrInvalidConfigValue = errors.New("config values must be string, number or boolean")

// ValidateConfig rejects non-scalar config values at graph-build time so
// execution never has to reason about nested structures.
func (n *WorkflowNode) ValidateConfig() error {
	for key, value := range n.Config {
		switch value.(type) {
		case string, bool, int, int64, float64:
		default:
			return fmt.Errorf("node %s config key %q: %w", n.ID, key, ErrInvalidConfigValue)
		}
	}

	return nil
}

// IsTriggerNode reports whether this node starts a workflow run.
func (n *WorkflowNode) IsTriggerNode() bool {
	return n.Type == NodeTypeTrigger
}
