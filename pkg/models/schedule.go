package models

import (
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduleType selects how a schedule decides to fire.
type ScheduleType string

const (
	ScheduleTypeCron        ScheduleType = "cron"
	ScheduleTypeInterval    ScheduleType = "interval"
	ScheduleTypeWebhook     ScheduleType = "webhook"
	ScheduleTypeEvent       ScheduleType = "event"
	ScheduleTypeConditional ScheduleType = "conditional"
)

// FilterOp is a predicate applied to one payload field of an inbound
// webhook request or event.
type FilterOp string

const (
	FilterOpEquals   FilterOp = "eq"
	FilterOpContains FilterOp = "contains"
	FilterOpExists   FilterOp = "exists"
)

// Filter matches a single field of an inbound payload.
type Filter struct {
	Field string   `json:"field" validate:"required"`
	Op    FilterOp `json:"op"    validate:"required"`
	Value string   `json:"value,omitempty"`
}

// Matches applies the filter against a payload.
func (f Filter) Matches(payload map[string]any) bool {
	raw, ok := payload[f.Field]

	switch f.Op {
	case FilterOpExists:
		return ok
	case FilterOpEquals:
		return ok && stringify(raw) == f.Value
	case FilterOpContains:
		return ok && strings.Contains(stringify(raw), f.Value)
	default:
		return false
	}
}

// RetryPolicy drives exponential backoff after a failed execution.
// MaxAttempts is the retry budget, not a cap on total runs: the failure
// of attempt n <= MaxAttempts schedules retry n after
// min(MaxDelay, baseUnit*BackoffMultiplier^(n-1)).
type RetryPolicy struct {
	MaxAttempts       int     `json:"max_attempts"       validate:"min=1"`
	BackoffMultiplier float64 `json:"backoff_multiplier" validate:"gt=0"`
	MaxDelayMs        int64   `json:"max_delay_ms"       validate:"min=0"`
}

// Schedule is a long-lived binding between a trigger predicate and a
// workflow. The next due time is precomputed so the polling tick can
// compare timestamps instead of re-parsing cron expressions.
type Schedule struct {
	ID         string       `json:"id"          validate:"required"`
	WorkflowID string       `json:"workflow_id" validate:"required"`
	Type       ScheduleType `json:"type"        validate:"required"`
	Enabled    bool         `json:"enabled"`

	// CronExpr holds a standard 5-field cron expression (cron type).
	CronExpr string `json:"cron_expr,omitempty"`

	// Every is the firing period in seconds (interval type).
	Every int64 `json:"every,omitempty"`

	// Expression is evaluated against workflow variables (conditional type).
	Expression string `json:"expression,omitempty"`

	// Filters match inbound payloads (webhook and event types).
	Filters []Filter `json:"filters,omitempty"`

	// Source names the webhook path or event source the filters apply to.
	Source string `json:"source,omitempty"`

	Retry *RetryPolicy `json:"retry,omitempty"`

	NextDueAt time.Time `json:"next_due_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrInvalidSchedule is returned when schedule validation fails.
var ErrInvalidSchedule = errors.New("invalid schedule configuration")

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NewSchedule creates a schedule with the first due time computed.
func NewSchedule(id, workflowID string, scheduleType ScheduleType) *Schedule {
	now := time.Now().UTC()

	return &Schedule{
		ID:         id,
		WorkflowID: workflowID,
		Type:       scheduleType,
		Enabled:    true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate checks the schedule's type-specific fields.
func (s *Schedule) Validate() error {
	if s.ID == "" || s.WorkflowID == "" {
		return ErrInvalidSchedule
	}

	switch s.Type {
	case ScheduleTypeCron:
		if s.CronExpr == "" {
			return ErrInvalidSchedule
		}

		_, err := cronParser.Parse(s.CronExpr)

		return err
	case ScheduleTypeInterval:
		if s.Every <= 0 {
			return ErrInvalidSchedule
		}
	case ScheduleTypeConditional:
		if s.Expression == "" {
			return ErrInvalidSchedule
		}
	case ScheduleTypeWebhook, ScheduleTypeEvent:
		if s.Source == "" {
			return ErrInvalidSchedule
		}
	default:
		return ErrInvalidSchedule
	}

	return nil
}

// UpdateNextDueAt recomputes the next firing time from the reference time.
// Webhook, event and conditional schedules have no due time.
func (s *Schedule) UpdateNextDueAt(reference time.Time) error {
	switch s.Type {
	case ScheduleTypeCron:
		cronSchedule, err := cronParser.Parse(s.CronExpr)
		if err != nil {
			return err
		}

		s.NextDueAt = cronSchedule.Next(reference)
	case ScheduleTypeInterval:
		s.NextDueAt = reference.Add(time.Duration(s.Every) * time.Second)
	default:
		s.NextDueAt = time.Time{}
	}

	s.UpdatedAt = time.Now().UTC()

	return nil
}

// IsDue reports whether a time-based schedule should fire at now.
func (s *Schedule) IsDue(now time.Time) bool {
	if !s.Enabled || s.NextDueAt.IsZero() {
		return false
	}

	return !s.NextDueAt.After(now)
}

// ExecutionStatus tracks the lifecycle of one schedule firing.
type ExecutionStatus string

const (
	ExecutionStatusScheduled ExecutionStatus = "scheduled"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// ScheduleExecution is one firing of a schedule. It transitions
// scheduled -> running -> completed|failed, optionally re-entering
// scheduled under the retry policy before reaching a terminal state.
type ScheduleExecution struct {
	ID         string          `json:"id"`
	ScheduleID string          `json:"schedule_id"`
	WorkflowID string          `json:"workflow_id"`
	Status     ExecutionStatus `json:"status"`
	Attempt    int             `json:"attempt"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Error      string          `json:"error,omitempty"`
}
