package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graphWith(nodes ...*WorkflowNode) *Workflow {
	return &Workflow{ID: "wf-1", Name: "test graph", Nodes: nodes}
}

func TestWorkflowValidate(t *testing.T) {
	valid := graphWith(
		&WorkflowNode{ID: "t", Type: NodeTypeTrigger, Outgoing: []string{"a"}, Enabled: true},
		&WorkflowNode{ID: "a", Type: NodeTypeAction, Service: "log", Enabled: true},
	)
	require.NoError(t, valid.Validate())
}

func TestWorkflowValidateRejectsMissingTrigger(t *testing.T) {
	wf := graphWith(&WorkflowNode{ID: "a", Type: NodeTypeAction})
	require.ErrorIs(t, wf.Validate(), ErrNoTriggerNode)
}

func TestWorkflowValidateRejectsMultipleTriggers(t *testing.T) {
	wf := graphWith(
		&WorkflowNode{ID: "t1", Type: NodeTypeTrigger},
		&WorkflowNode{ID: "t2", Type: NodeTypeTrigger},
	)
	require.ErrorIs(t, wf.Validate(), ErrMultipleTriggerNodes)
}

func TestWorkflowValidateRejectsDuplicateIDs(t *testing.T) {
	wf := graphWith(
		&WorkflowNode{ID: "t", Type: NodeTypeTrigger},
		&WorkflowNode{ID: "t", Type: NodeTypeAction},
	)
	require.Error(t, wf.Validate())
}

func TestWorkflowValidateRejectsDanglingEdge(t *testing.T) {
	wf := graphWith(
		&WorkflowNode{ID: "t", Type: NodeTypeTrigger, Outgoing: []string{"ghost"}},
	)
	require.ErrorIs(t, wf.Validate(), ErrDanglingEdge)
}

func TestWorkflowValidateRejectsNestedConfig(t *testing.T) {
	wf := graphWith(
		&WorkflowNode{
			ID:     "t",
			Type:   NodeTypeTrigger,
			Config: map[string]any{"nested": map[string]any{"a": 1}},
		},
	)
	require.ErrorIs(t, wf.Validate(), ErrInvalidConfigValue)
}

func TestWorkflowValidateAllowsCycles(t *testing.T) {
	wf := graphWith(
		&WorkflowNode{ID: "t", Type: NodeTypeTrigger, Outgoing: []string{"a"}},
		&WorkflowNode{ID: "a", Type: NodeTypeAction, Outgoing: []string{"b"}},
		&WorkflowNode{ID: "b", Type: NodeTypeAction, Outgoing: []string{"a"}},
	)
	require.NoError(t, wf.Validate())
}

func TestValidateConfigAcceptsScalars(t *testing.T) {
	node := &WorkflowNode{
		ID:   "n",
		Type: NodeTypeAction,
		Config: map[string]any{
			"text":   "hello",
			"count":  3,
			"big":    int64(9),
			"ratio":  1.5,
			"toggle": true,
		},
	}
	require.NoError(t, node.ValidateConfig())
}

func TestNodeByID(t *testing.T) {
	wf := graphWith(
		&WorkflowNode{ID: "t", Type: NodeTypeTrigger},
	)

	node, ok := wf.NodeByID("t")
	require.True(t, ok)
	assert.Equal(t, NodeTypeTrigger, node.Type)

	_, ok = wf.NodeByID("missing")
	assert.False(t, ok)
}

func TestSyncConnections(t *testing.T) {
	wf := graphWith(
		&WorkflowNode{ID: "t", Type: NodeTypeTrigger, Outgoing: []string{"a", "b"}},
		&WorkflowNode{ID: "a", Type: NodeTypeAction},
		&WorkflowNode{ID: "b", Type: NodeTypeAction},
	)

	wf.SyncConnections()

	require.Len(t, wf.Connections, 2)
	assert.Equal(t, "t:a", wf.Connections[0].ID)
	assert.Equal(t, "t:b", wf.Connections[1].ID)
}
