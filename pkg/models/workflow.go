package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoTriggerNode indicates a workflow graph without a trigger node.
	ErrNoTriggerNode = errors.New("workflow has no trigger node")

	// ErrMultipleTriggerNodes indicates more than one trigger node.
	ErrMultipleTriggerNodes = errors.New("workflow has more than one trigger node")

	// ErrDanglingEdge indicates an outgoing edge pointing at a missing node.
	ErrDanglingEdge = errors.New("edge references unknown node")
)

// Workflow represents a node-based workflow graph.
type Workflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"        validate:"required,min=3"`
	Description string          `json:"description,omitempty"`
	Nodes       []*WorkflowNode `json:"nodes"`
	Connections []*Connection   `json:"connections,omitempty"`
	Variables   map[string]any  `json:"variables,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TriggerNode returns the single trigger node of the graph.
func (w *Workflow) TriggerNode() (*WorkflowNode, error) {
	var trigger *WorkflowNode

	for _, node := range w.Nodes {
		if node.IsTriggerNode() {
			if trigger != nil {
				return nil, ErrMultipleTriggerNodes
			}

			trigger = node
		}
	}

	if trigger == nil {
		return nil, ErrNoTriggerNode
	}

	return trigger, nil
}

// NodeByID looks a node up by its graph-unique identifier.
func (w *Workflow) NodeByID(id string) (*WorkflowNode, bool) {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node, true
		}
	}

	return nil, false
}

// Validate checks the structural invariants of the graph: exactly one
// trigger node, no dangling edges, scalar-only node configs. Cycles are not
// rejected here; the executor skips revisited nodes at run time.
func (w *Workflow) Validate() error {
	if _, err := w.TriggerNode(); err != nil {
		return err
	}

	ids := make(map[string]struct{}, len(w.Nodes))
	for _, node := range w.Nodes {
		if _, dup := ids[node.ID]; dup {
			return fmt.Errorf("duplicate node id %q", node.ID)
		}

		ids[node.ID] = struct{}{}
	}

	for _, node := range w.Nodes {
		if err := node.ValidateConfig(); err != nil {
			return err
		}

		for _, target := range node.Outgoing {
			if _, ok := ids[target]; !ok {
				return fmt.Errorf("node %s -> %s: %w", node.ID, target, ErrDanglingEdge)
			}
		}
	}

	for _, conn := range w.Connections {
		if _, ok := ids[conn.SourceID]; !ok {
			return fmt.Errorf("connection %s source %s: %w", conn.ID, conn.SourceID, ErrDanglingEdge)
		}

		if _, ok := ids[conn.TargetID]; !ok {
			return fmt.Errorf("connection %s target %s: %w", conn.ID, conn.TargetID, ErrDanglingEdge)
		}
	}

	return nil
}

// SyncConnections rebuilds the explicit edge list from node Outgoing sets.
func (w *Workflow) SyncConnections() {
	w.Connections = w.Connections[:0]

	for _, node := range w.Nodes {
		for _, target := range node.Outgoing {
			w.Connections = append(w.Connections, &Connection{
				ID:       node.ID + ":" + target,
				SourceID: node.ID,
				TargetID: target,
			})
		}
	}
}
