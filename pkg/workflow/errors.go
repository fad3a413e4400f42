// Package workflow validates and executes node-based workflow graphs.
package workflow

import (
	"errors"
	"fmt"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
)

var (
	// ErrNoTrigger indicates the graph has no trigger node. It aborts a
	// run before any node executes.
	ErrNoTrigger = models.ErrNoTriggerNode

	// ErrStoppedByCaller is the distinguished reason for a cooperative
	// cancellation between nodes.
	ErrStoppedByCaller = errors.New("stopped by caller")

	// ErrUnsupportedExpression indicates a condition expression outside
	// the supported forms. Unrecognized expressions fail the node rather
	// than silently passing.
	ErrUnsupportedExpression = errors.New("unsupported condition expression")
)

// ValidationError wraps structural graph problems detected before a run.
type ValidationError struct {
	WorkflowID string
	Err        error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("workflow %s failed validation: %v", e.WorkflowID, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NodeExecutionError wraps a single node's failure. It aborts only the
// branch from that node onward; results already recorded are preserved.
type NodeExecutionError struct {
	NodeID string
	Err    error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %s failed: %v", e.NodeID, e.Err)
}

func (e *NodeExecutionError) Unwrap() error { return e.Err }
