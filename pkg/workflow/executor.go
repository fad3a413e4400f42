package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/events"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/otelhelper"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/services"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/template"
)

// ProgressFunc receives per-node status transitions during a run.
type ProgressFunc func(nodeID string, status models.NodeStatus, err error)

// Option configures an Executor.
type Option func(*Executor)

// WithEventBus publishes run lifecycle events on the bus, best effort.
func WithEventBus(bus events.EventBus) Option {
	return func(e *Executor) { e.bus = bus }
}

// WithTracer records one span per run and per node.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) { e.tracer = tracer }
}

// Executor runs workflow graphs. One Executor may run many graphs; every
// run gets its own fresh ExecutionContext, so concurrent runs of the same
// graph never share state.
type Executor struct {
	registry *services.Registry
	logger   *slog.Logger
	bus      events.EventBus
	tracer   trace.Tracer
}

// NewExecutor creates an executor dispatching against the given registry.
func NewExecutor(registry *services.Registry, logger *slog.Logger, opts ...Option) *Executor {
	e := &Executor{
		registry: registry,
		logger:   logger.With("module", "workflow_executor"),
		tracer:   otelhelper.NoopTracer(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute runs a workflow graph to completion. It returns the run's
// ExecutionContext together with the first node error, if any. Structural
// problems and capability failures abort the run before any node executes.
func (e *Executor) Execute(ctx context.Context, wf *models.Workflow, onProgress ProgressFunc) (*models.ExecutionContext, error) {
	if err := wf.Validate(); err != nil {
		return nil, &ValidationError{WorkflowID: wf.ID, Err: err}
	}

	trigger, err := wf.TriggerNode()
	if err != nil {
		return nil, &ValidationError{WorkflowID: wf.ID, Err: err}
	}

	ectx := &models.ExecutionContext{
		ID:         "exec-" + uuid.New().String()[:8],
		WorkflowID: wf.ID,
		Variables:  make(map[string]any),
		Results:    make(map[string]any),
		StartedAt:  time.Now().UTC(),
	}

	for key, value := range wf.Variables {
		ectx.Variables[key] = value
	}

	logger := e.logger.With(
		"workflow_id", wf.ID,
		"execution_id", ectx.ID,
	)

	logger.Info("Starting execution of workflow")

	runCtx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, wf.ID),
		attribute.String(otelhelper.ExecutionIDKey, ectx.ID),
	)
	defer span.End()

	resolved, err := e.resolveCapabilities(runCtx, wf)
	if err != nil {
		logger.Error("Capability initialization failed", "error", err)
		otelhelper.SetError(span, err)
		e.publishFailed(runCtx, wf.ID, ectx.ID, "", err)

		return nil, err
	}

	e.publishStarted(runCtx, wf.ID, ectx.ID)

	runErr := e.traverse(runCtx, wf, trigger, ectx, resolved, onProgress, logger)

	finished := time.Now().UTC()
	ectx.FinishedAt = &finished

	e.attachMetrics(wf, ectx, finished)

	if runErr != nil {
		otelhelper.SetError(span, runErr)

		var nodeErr *NodeExecutionError

		failedNode := ""
		if errors.As(runErr, &nodeErr) {
			failedNode = nodeErr.NodeID
		}

		e.publishFailed(runCtx, wf.ID, ectx.ID, failedNode, runErr)

		logger.Error("Workflow execution failed", "error", runErr)

		return ectx, runErr
	}

	e.publishCompleted(runCtx, ectx)
	logger.Info("Completed execution of workflow")

	return ectx, nil
}

// resolveCapabilities initializes every capability referenced by the
// graph before traversal begins. Any failure is fatal for the whole run.
// Instances are keyed per node, not per service name, so two nodes of the
// same service with different factory config never share settings.
func (e *Executor) resolveCapabilities(ctx context.Context, wf *models.Workflow) (map[string]services.Service, error) {
	resolved := make(map[string]services.Service)

	for _, node := range wf.Nodes {
		if node.Service == "" {
			continue
		}

		service, err := e.registry.Create(node.Service, node.Config)
		if err != nil {
			return nil, err
		}

		if err := service.Initialize(ctx); err != nil {
			return nil, services.NewCapabilityError(node.Service, err)
		}

		resolved[node.ID] = service
	}

	return resolved, nil
}

// traverse walks the graph depth-first from the trigger. A node error
// stops its branch; sibling branches already queued keep running and the
// first error is reported after traversal ends.
func (e *Executor) traverse(
	ctx context.Context,
	wf *models.Workflow,
	trigger *models.WorkflowNode,
	ectx *models.ExecutionContext,
	resolved map[string]services.Service,
	onProgress ProgressFunc,
	logger *slog.Logger,
) error {
	visited := make(map[string]bool)
	stack := []*models.WorkflowNode{trigger}

	var firstErr error

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			ectx.AppendLog("", "error", "execution stopped by caller")

			return fmt.Errorf("%w: %w", ErrStoppedByCaller, err)
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[node.ID] {
			message := "skipped: already visited"
			ectx.AppendLog(node.ID, "warn", message)
			logger.Warn(message, "node_id", node.ID)

			continue
		}

		visited[node.ID] = true

		if !node.Enabled {
			ectx.AppendLog(node.ID, "info", "node disabled, skipping")
			stack = e.pushOutgoing(stack, wf, node)

			continue
		}

		follow, err := e.executeNode(ctx, node, ectx, resolved, onProgress, logger)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}

			// Branch stops here; nodes downstream of the failure are
			// never reached.
			continue
		}

		if follow {
			stack = e.pushOutgoing(stack, wf, node)
		}
	}

	return firstErr
}

// pushOutgoing pushes a node's successors in reverse so the first edge is
// traversed first.
func (e *Executor) pushOutgoing(stack []*models.WorkflowNode, wf *models.Workflow, node *models.WorkflowNode) []*models.WorkflowNode {
	for i := len(node.Outgoing) - 1; i >= 0; i-- {
		next, ok := wf.NodeByID(node.Outgoing[i])
		if ok {
			stack = append(stack, next)
		}
	}

	return stack
}

// executeNode runs one node and reports progress. The boolean result
// says whether traversal should follow the node's outgoing edges; a
// false condition gates its branch off.
func (e *Executor) executeNode(
	ctx context.Context,
	node *models.WorkflowNode,
	ectx *models.ExecutionContext,
	resolved map[string]services.Service,
	onProgress ProgressFunc,
	logger *slog.Logger,
) (bool, error) {
	if onProgress != nil {
		onProgress(node.ID, models.NodeStatusRunning, nil)
	}

	ectx.AppendLog(node.ID, "info", fmt.Sprintf("executing %s node", node.Type))

	nodeCtx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
		attribute.String(otelhelper.ServiceKey, node.Service),
	)
	defer span.End()

	follow, err := e.dispatchNode(nodeCtx, node, ectx, resolved)
	if err != nil {
		wrapped := &NodeExecutionError{NodeID: node.ID, Err: err}
		ectx.AppendLog(node.ID, "error", wrapped.Error())
		otelhelper.SetError(span, wrapped)
		logger.Error("Node execution failed", "node_id", node.ID, "error", err)

		if onProgress != nil {
			onProgress(node.ID, models.NodeStatusError, wrapped)
		}

		return false, wrapped
	}

	ectx.AppendLog(node.ID, "info", "node completed")

	if onProgress != nil {
		onProgress(node.ID, models.NodeStatusCompleted, nil)
	}

	return follow, nil
}

func (e *Executor) dispatchNode(
	ctx context.Context,
	node *models.WorkflowNode,
	ectx *models.ExecutionContext,
	resolved map[string]services.Service,
) (bool, error) {
	switch node.Type {
	case models.NodeTypeTrigger:
		return true, e.runTrigger(ctx, node, ectx, resolved)
	case models.NodeTypeAction:
		return true, e.runAction(ctx, node, ectx, resolved)
	case models.NodeTypeCondition:
		return e.runCondition(node, ectx)
	case models.NodeTypeDelay:
		return true, e.runDelay(ctx, node)
	default:
		return false, fmt.Errorf("unknown node type %q", node.Type)
	}
}

// runTrigger seeds initial data into the run variables. A trigger without
// a capability is a manual start and a no-op.
func (e *Executor) runTrigger(ctx context.Context, node *models.WorkflowNode, ectx *models.ExecutionContext, resolved map[string]services.Service) error {
	if node.Service == "" {
		return nil
	}

	service := resolved[node.ID]

	data, err := service.Fetch(ctx, node.Config)
	if err != nil {
		return err
	}

	for key, value := range data {
		ectx.Variables[key] = value
	}

	return nil
}

func (e *Executor) runAction(ctx context.Context, node *models.WorkflowNode, ectx *models.ExecutionContext, resolved map[string]services.Service) error {
	if node.Service == "" {
		return fmt.Errorf("action node has no service bound")
	}

	params, err := template.RenderConfig(node.Config, ectx)
	if err != nil {
		return err
	}

	result, err := resolved[node.ID].Execute(ctx, node.Operation, params, ectx)
	if err != nil {
		return err
	}

	ectx.Results[node.ID] = result

	return nil
}

func (e *Executor) runCondition(node *models.WorkflowNode, ectx *models.ExecutionContext) (bool, error) {
	expression, _ := node.Config["expression"].(string)

	result, err := EvalCondition(expression, ectx.Variables)
	if err != nil {
		return false, err
	}

	ectx.Variables[node.ID+"_result"] = result

	return result, nil
}

// runDelay suspends this run's traversal without blocking other runs.
func (e *Executor) runDelay(ctx context.Context, node *models.WorkflowNode) error {
	seconds, ok := toFloat(node.Config["duration"])
	if !ok || seconds < 0 {
		return fmt.Errorf("delay node requires a non-negative duration")
	}

	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrStoppedByCaller, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// attachMetrics records run-level metrics into the variables map. It runs
// for failed executions too: failedNodes and successRate then report the
// partial progress the run made.
func (e *Executor) attachMetrics(wf *models.Workflow, ectx *models.ExecutionContext, finished time.Time) {
	total := len(wf.Nodes)
	failed := 0
	completed := 0

	for _, entry := range ectx.Logs {
		switch entry.Message {
		case "node completed":
			completed++
		default:
			if entry.Level == "error" && entry.NodeID != "" {
				failed++
			}
		}
	}

	rate := 0.0
	if total > 0 {
		rate = float64(completed) / float64(total)
	}

	ectx.Variables[models.MetricTotalNodes] = total
	ectx.Variables[models.MetricCompletedNodes] = completed
	ectx.Variables[models.MetricFailedNodes] = failed
	ectx.Variables[models.MetricExecutionTimeMs] = finished.Sub(ectx.StartedAt).Milliseconds()
	ectx.Variables[models.MetricSuccessRate] = rate
}

func (e *Executor) publishStarted(ctx context.Context, workflowID, executionID string) {
	if e.bus == nil {
		return
	}

	event := events.ExecutionStarted{
		BaseEvent:   events.NewBase(uuid.New().String(), events.ExecutionStartedEvent, workflowID),
		ExecutionID: executionID,
	}

	if err := e.bus.Publish(ctx, workflowID, event); err != nil {
		e.logger.Warn("Failed to publish execution started event", "error", err)
	}
}

func (e *Executor) publishCompleted(ctx context.Context, ectx *models.ExecutionContext) {
	if e.bus == nil {
		return
	}

	event := events.FromExecutionContext(uuid.New().String(), ectx)
	if err := e.bus.Publish(ctx, ectx.WorkflowID, event); err != nil {
		e.logger.Warn("Failed to publish execution completed event", "error", err)
	}
}

func (e *Executor) publishFailed(ctx context.Context, workflowID, executionID, nodeID string, cause error) {
	if e.bus == nil {
		return
	}

	event := events.ExecutionFailed{
		BaseEvent:   events.NewBase(uuid.New().String(), events.ExecutionFailedEvent, workflowID),
		ExecutionID: executionID,
		NodeID:      nodeID,
		Reason:      cause.Error(),
	}

	if err := e.bus.Publish(ctx, workflowID, event); err != nil {
		e.logger.Warn("Failed to publish execution failed event", "error", err)
	}
}
