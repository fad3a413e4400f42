package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// probeService records the order nodes execute in and fails on demand.
type probeService struct {
	mu       sync.Mutex
	executed []string
}

func (*probeService) Initialize(_ context.Context) error { return nil }

func (*probeService) Fetch(_ context.Context, _ map[string]any) (map[string]any, error) {
	return map[string]any{"source": "probe"}, nil
}

func (s *probeService) Execute(_ context.Context, operation string, params map[string]any, _ *models.ExecutionContext) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, _ := params["name"].(string)
	s.executed = append(s.executed, name)

	if shouldFail, _ := params["fail"].(bool); shouldFail {
		return nil, fmt.Errorf("probe failure in %s", name)
	}

	return map[string]any{"operation": operation, "name": name}, nil
}

func (s *probeService) order() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.executed...)
}

type probeFactory struct {
	service *probeService
}

func (*probeFactory) ID() string { return "probe" }

func (f *probeFactory) Create(_ map[string]any) (services.Service, error) {
	return f.service, nil
}

func probeRegistry(t *testing.T) (*services.Registry, *probeService) {
	t.Helper()

	probe := &probeService{}
	registry := services.Default(testLogger())
	registry.Register(&probeFactory{service: probe})

	return registry, probe
}

func triggerNode(outgoing ...string) *models.WorkflowNode {
	return &models.WorkflowNode{
		ID:       "trigger-1",
		Type:     models.NodeTypeTrigger,
		Service:  "probe",
		Outgoing: outgoing,
		Enabled:  true,
	}
}

func actionNode(id string, config map[string]any, outgoing ...string) *models.WorkflowNode {
	if config == nil {
		config = map[string]any{}
	}

	config["name"] = id

	return &models.WorkflowNode{
		ID:        id,
		Type:      models.NodeTypeAction,
		Service:   "probe",
		Operation: "run",
		Config:    config,
		Outgoing:  outgoing,
		Enabled:   true,
	}
}

func testWorkflow(nodes ...*models.WorkflowNode) *models.Workflow {
	return &models.Workflow{
		ID:    "wf-test",
		Name:  "test workflow",
		Nodes: nodes,
	}
}

func TestExecuteLinearWorkflow(t *testing.T) {
	registry, probe := probeRegistry(t)
	executor := NewExecutor(registry, testLogger())

	wf := testWorkflow(
		triggerNode("step-1"),
		actionNode("step-1", nil, "step-2"),
		actionNode("step-2", nil),
	)

	ectx, err := executor.Execute(context.Background(), wf, nil)
	require.NoError(t, err)
	require.NotNil(t, ectx)

	assert.Equal(t, []string{"step-1", "step-2"}, probe.order())
	assert.Equal(t, "probe", ectx.Variables["source"], "trigger fetch should seed variables")
	assert.Contains(t, ectx.Results, "step-1")
	assert.Contains(t, ectx.Results, "step-2")
	assert.NotNil(t, ectx.FinishedAt)

	assert.Equal(t, 3, ectx.Variables[models.MetricTotalNodes])
	assert.Equal(t, 3, ectx.Variables[models.MetricCompletedNodes])
	assert.Equal(t, 0, ectx.Variables[models.MetricFailedNodes])
	assert.Equal(t, 1.0, ectx.Variables[models.MetricSuccessRate])
}

func TestExecuteTemplatedParams(t *testing.T) {
	registry, _ := probeRegistry(t)
	executor := NewExecutor(registry, testLogger())

	wf := testWorkflow(
		triggerNode("greet"),
		actionNode("greet", map[string]any{"message": "hello {{.vars.who}}"}),
	)
	wf.Variables = map[string]any{"who": "world"}

	ectx, err := executor.Execute(context.Background(), wf, nil)
	require.NoError(t, err)

	result, ok := ectx.Results["greet"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "greet", result["name"])
}

func TestExecutePartialFailureKeepsSiblingBranch(t *testing.T) {
	registry, probe := probeRegistry(t)
	executor := NewExecutor(registry, testLogger())

	// trigger -> a -> b and trigger -> c. A failure in a must not reach b,
	// and must not prevent c from running.
	wf := testWorkflow(
		triggerNode("a", "c"),
		actionNode("a", map[string]any{"fail": true}, "b"),
		actionNode("b", nil),
		actionNode("c", nil),
	)

	ectx, err := executor.Execute(context.Background(), wf, nil)
	require.Error(t, err)
	require.NotNil(t, ectx, "context with partial results must be returned")

	var nodeErr *NodeExecutionError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "a", nodeErr.NodeID)

	assert.Contains(t, probe.order(), "c")
	assert.NotContains(t, probe.order(), "b")
	assert.Contains(t, ectx.Results, "c")
	assert.NotContains(t, ectx.Results, "a")

	// Metrics are attached on failed runs too, reporting partial progress.
	assert.Equal(t, 4, ectx.Variables[models.MetricTotalNodes])
	assert.Equal(t, 2, ectx.Variables[models.MetricCompletedNodes])
	assert.Equal(t, 1, ectx.Variables[models.MetricFailedNodes])
	assert.Equal(t, 0.5, ectx.Variables[models.MetricSuccessRate])
}

func TestExecuteCyclicGraphTerminates(t *testing.T) {
	registry, probe := probeRegistry(t)
	executor := NewExecutor(registry, testLogger())

	wf := testWorkflow(
		triggerNode("a"),
		actionNode("a", nil, "b"),
		actionNode("b", nil, "a"),
	)

	ectx, err := executor.Execute(context.Background(), wf, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, probe.order())

	skips := 0
	for _, entry := range ectx.Logs {
		if entry.Message == "skipped: already visited" {
			skips++
			assert.Equal(t, "a", entry.NodeID)
		}
	}

	assert.Equal(t, 1, skips, "revisited node must be skipped exactly once")
}

func TestExecuteConditionGatesBranch(t *testing.T) {
	registry, probe := probeRegistry(t)
	executor := NewExecutor(registry, testLogger())

	wf := testWorkflow(
		triggerNode("check"),
		&models.WorkflowNode{
			ID:       "check",
			Type:     models.NodeTypeCondition,
			Config:   map[string]any{"expression": "count > 10"},
			Outgoing: []string{"gated"},
			Enabled:  true,
		},
		actionNode("gated", nil),
	)
	wf.Variables = map[string]any{"count": 3}

	ectx, err := executor.Execute(context.Background(), wf, nil)
	require.NoError(t, err)

	assert.Empty(t, probe.order(), "false condition must gate its branch")
	assert.Equal(t, false, ectx.Variables["check_result"])
}

func TestExecuteConditionTrueFollowsBranch(t *testing.T) {
	registry, probe := probeRegistry(t)
	executor := NewExecutor(registry, testLogger())

	wf := testWorkflow(
		triggerNode("check"),
		&models.WorkflowNode{
			ID:       "check",
			Type:     models.NodeTypeCondition,
			Config:   map[string]any{"expression": "count > 10"},
			Outgoing: []string{"gated"},
			Enabled:  true,
		},
		actionNode("gated", nil),
	)
	wf.Variables = map[string]any{"count": 42}

	ectx, err := executor.Execute(context.Background(), wf, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"gated"}, probe.order())
	assert.Equal(t, true, ectx.Variables["check_result"])
}

func TestExecuteUnparseableConditionFailsNode(t *testing.T) {
	registry, _ := probeRegistry(t)
	executor := NewExecutor(registry, testLogger())

	wf := testWorkflow(
		triggerNode("check"),
		&models.WorkflowNode{
			ID:      "check",
			Type:    models.NodeTypeCondition,
			Config:  map[string]any{"expression": "count >>> banana"},
			Enabled: true,
		},
	)

	_, err := executor.Execute(context.Background(), wf, nil)
	require.Error(t, err)

	var nodeErr *NodeExecutionError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "check", nodeErr.NodeID)
	assert.ErrorIs(t, err, ErrUnsupportedExpression)
}

func TestExecuteDisabledNodeSkipped(t *testing.T) {
	registry, probe := probeRegistry(t)
	executor := NewExecutor(registry, testLogger())

	disabled := actionNode("middle", nil, "after")
	disabled.Enabled = false

	wf := testWorkflow(
		triggerNode("middle"),
		disabled,
		actionNode("after", nil),
	)

	ectx, err := executor.Execute(context.Background(), wf, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"after"}, probe.order(), "traversal continues past disabled nodes")
	assert.NotContains(t, ectx.Results, "middle")
}

func TestExecuteProgressCallback(t *testing.T) {
	registry, _ := probeRegistry(t)
	executor := NewExecutor(registry, testLogger())

	wf := testWorkflow(
		triggerNode("a"),
		actionNode("a", map[string]any{"fail": true}),
	)

	type transition struct {
		nodeID string
		status models.NodeStatus
	}

	var seen []transition

	_, err := executor.Execute(context.Background(), wf, func(nodeID string, status models.NodeStatus, _ error) {
		seen = append(seen, transition{nodeID: nodeID, status: status})
	})
	require.Error(t, err)

	assert.Equal(t, []transition{
		{"trigger-1", models.NodeStatusRunning},
		{"trigger-1", models.NodeStatusCompleted},
		{"a", models.NodeStatusRunning},
		{"a", models.NodeStatusError},
	}, seen)
}

func TestExecuteValidatesGraphFirst(t *testing.T) {
	registry, probe := probeRegistry(t)
	executor := NewExecutor(registry, testLogger())

	wf := testWorkflow(actionNode("orphan", nil))

	_, err := executor.Execute(context.Background(), wf, nil)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.ErrorIs(t, err, ErrNoTrigger)
	assert.Empty(t, probe.order(), "nothing may run on an invalid graph")
}

func TestExecuteUnknownCapabilityAbortsRun(t *testing.T) {
	registry, probe := probeRegistry(t)
	executor := NewExecutor(registry, testLogger())

	wf := testWorkflow(
		triggerNode("a"),
		actionNode("a", nil, "b"),
		&models.WorkflowNode{
			ID:        "b",
			Type:      models.NodeTypeAction,
			Service:   "does-not-exist",
			Operation: "run",
			Enabled:   true,
		},
	)

	_, err := executor.Execute(context.Background(), wf, nil)
	require.Error(t, err)

	var capErr *services.CapabilityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "does-not-exist", capErr.Capability)
	assert.Empty(t, probe.order(), "capability resolution happens before any node runs")
}

// configEchoService surfaces the factory config it was built from.
type configEchoService struct {
	flavor string
}

func (*configEchoService) Initialize(context.Context) error { return nil }

func (*configEchoService) Fetch(context.Context, map[string]any) (map[string]any, error) {
	return nil, nil
}

func (s *configEchoService) Execute(_ context.Context, _ string, _ map[string]any, _ *models.ExecutionContext) (any, error) {
	return s.flavor, nil
}

type configEchoFactory struct{}

func (*configEchoFactory) ID() string { return "echo" }

func (*configEchoFactory) Create(config map[string]any) (services.Service, error) {
	flavor, _ := config["flavor"].(string)

	return &configEchoService{flavor: flavor}, nil
}

func TestExecutePerNodeCapabilityConfig(t *testing.T) {
	registry, _ := probeRegistry(t)
	registry.Register(&configEchoFactory{})

	executor := NewExecutor(registry, testLogger())

	echoNode := func(id, flavor string, outgoing ...string) *models.WorkflowNode {
		return &models.WorkflowNode{
			ID:        id,
			Type:      models.NodeTypeAction,
			Service:   "echo",
			Operation: "run",
			Config:    map[string]any{"flavor": flavor},
			Outgoing:  outgoing,
			Enabled:   true,
		}
	}

	// Two nodes of the same service with different factory config must each
	// see their own settings.
	wf := testWorkflow(
		triggerNode("x"),
		echoNode("x", "vanilla", "y"),
		echoNode("y", "chocolate"),
	)

	ectx, err := executor.Execute(context.Background(), wf, nil)
	require.NoError(t, err)

	assert.Equal(t, "vanilla", ectx.Results["x"])
	assert.Equal(t, "chocolate", ectx.Results["y"])
}

func TestExecuteCancelledContext(t *testing.T) {
	registry, _ := probeRegistry(t)
	executor := NewExecutor(registry, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	wf := testWorkflow(
		triggerNode("a"),
		actionNode("a", nil),
	)

	ectx, err := executor.Execute(ctx, wf, nil)
	require.Error(t, err)
	require.NotNil(t, ectx)
	assert.True(t, errors.Is(err, ErrStoppedByCaller))
}

func TestExecuteDelayNode(t *testing.T) {
	registry, probe := probeRegistry(t)
	executor := NewExecutor(registry, testLogger())

	wf := testWorkflow(
		triggerNode("wait"),
		&models.WorkflowNode{
			ID:       "wait",
			Type:     models.NodeTypeDelay,
			Config:   map[string]any{"duration": 0.01},
			Outgoing: []string{"after"},
			Enabled:  true,
		},
		actionNode("after", nil),
	)

	_, err := executor.Execute(context.Background(), wf, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"after"}, probe.order())
}

func TestExecuteDelayNodeRejectsNegativeDuration(t *testing.T) {
	registry, _ := probeRegistry(t)
	executor := NewExecutor(registry, testLogger())

	wf := testWorkflow(
		triggerNode("wait"),
		&models.WorkflowNode{
			ID:      "wait",
			Type:    models.NodeTypeDelay,
			Config:  map[string]any{"duration": -1},
			Enabled: true,
		},
	)

	_, err := executor.Execute(context.Background(), wf, nil)
	require.Error(t, err)

	var nodeErr *NodeExecutionError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "wait", nodeErr.NodeID)
}

func TestExecuteConcurrentRunsAreIsolated(t *testing.T) {
	registry, _ := probeRegistry(t)
	executor := NewExecutor(registry, testLogger())

	wf := testWorkflow(
		triggerNode("a"),
		actionNode("a", nil),
	)

	var wg sync.WaitGroup

	contexts := make([]*models.ExecutionContext, 8)

	for i := range contexts {
		wg.Add(1)

		go func(slot int) {
			defer wg.Done()

			ectx, err := executor.Execute(context.Background(), wf, nil)
			assert.NoError(t, err)

			contexts[slot] = ectx
		}(i)
	}

	wg.Wait()

	ids := make(map[string]bool)
	for _, ectx := range contexts {
		require.NotNil(t, ectx)
		assert.False(t, ids[ectx.ID], "execution ids must be unique")
		ids[ectx.ID] = true
	}
}
