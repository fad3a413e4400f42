// Package events defines lifecycle notifications published while
// workflows execute and schedules fire.
package events

import (
	"time"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
)

// EventType identifies one lifecycle notification.
type EventType string

// Topic is the bus topic carrying all autoflow events.
const Topic = "autoflow.events"

// Metadata keys set on published messages.
const (
	EventMetadataKey     = "key"
	EventTypeMetadataKey = "event_type"
)

const (
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	ScheduleFiredEvent      EventType = "schedule.fired"
	RetryScheduledEvent     EventType = "schedule.retry"
)

// Event is anything publishable on the bus.
type Event interface {
	GetType() EventType
}

// BaseEvent carries the fields shared by all events.
type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
}

// ExecutionStarted is published when a workflow run begins.
type ExecutionStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
}

func (e ExecutionStarted) GetType() EventType { return ExecutionStartedEvent }

// ExecutionCompleted is published when a run finishes cleanly.
type ExecutionCompleted struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	Variables   map[string]any `json:"variables,omitempty"`
}

func (e ExecutionCompleted) GetType() EventType { return ExecutionCompletedEvent }

// ExecutionFailed is published when a run aborts.
type ExecutionFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id,omitempty"`
	Reason      string `json:"reason"`
}

func (e ExecutionFailed) GetType() EventType { return ExecutionFailedEvent }

// ScheduleFired is published when a schedule predicate matches.
type ScheduleFired struct {
	BaseEvent

	ScheduleID  string `json:"schedule_id"`
	ExecutionID string `json:"execution_id"`
	Attempt     int    `json:"attempt"`
}

func (e ScheduleFired) GetType() EventType { return ScheduleFiredEvent }

// RetryScheduled is published when a failed execution is queued for retry.
type RetryScheduled struct {
	BaseEvent

	ScheduleID  string `json:"schedule_id"`
	ExecutionID string `json:"execution_id"`
	Attempt     int    `json:"attempt"`
	DelayMs     int64  `json:"delay_ms"`
}

func (e RetryScheduled) GetType() EventType { return RetryScheduledEvent }

// NewBase builds the shared fields for an event.
func NewBase(id string, eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         id,
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// FromExecutionContext builds a completion event from a finished run.
func FromExecutionContext(id string, ectx *models.ExecutionContext) ExecutionCompleted {
	return ExecutionCompleted{
		BaseEvent:   NewBase(id, ExecutionCompletedEvent, ectx.WorkflowID),
		ExecutionID: ectx.ID,
		Variables:   ectx.Variables,
	}
}
