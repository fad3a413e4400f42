// Package scheduler fires workflows from cron, interval, conditional,
// webhook and event schedules, with exponential retry on failure.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/events"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/persistence"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/workflow"
)

const (
	scheduleKeyPrefix  = "schedules/"
	executionKeyPrefix = "executions/"

	// backoffBaseUnit is the unit delay for the first retry.
	backoffBaseUnit = 1000 * time.Millisecond

	defaultTick = time.Minute
)

// Runner executes the workflow bound to a fired schedule.
type Runner interface {
	Run(ctx context.Context, workflowID string) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, workflowID string) error

func (f RunnerFunc) Run(ctx context.Context, workflowID string) error {
	return f(ctx, workflowID)
}

// VariablesFunc supplies the variable set conditional schedules are
// evaluated against.
type VariablesFunc func(workflowID string) map[string]any

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTick overrides the polling interval.
func WithTick(tick time.Duration) Option {
	return func(s *Scheduler) { s.tick = tick }
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) { s.clock = clock }
}

// WithEventBus publishes schedule lifecycle events.
func WithEventBus(bus events.EventBus) Option {
	return func(s *Scheduler) { s.bus = bus }
}

// WithVariables supplies variables for conditional schedules.
func WithVariables(variables VariablesFunc) Option {
	return func(s *Scheduler) { s.variables = variables }
}

// Scheduler owns the schedule set and the polling tick. Webhook and event
// schedules bypass the tick entirely through HandleEvent.
type Scheduler struct {
	store     persistence.Store
	runner    Runner
	bus       events.EventBus
	logger    *slog.Logger
	clock     func() time.Time
	tick      time.Duration
	variables VariablesFunc

	mu        sync.Mutex
	schedules map[string]*models.Schedule

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New creates a scheduler persisting schedules and history in store.
func New(store persistence.Store, runner Runner, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:     store,
		runner:    runner,
		logger:    logger.With("module", "scheduler"),
		clock:     func() time.Time { return time.Now().UTC() },
		tick:      defaultTick,
		schedules: make(map[string]*models.Schedule),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Add validates a schedule, computes its first due time and persists it.
func (s *Scheduler) Add(ctx context.Context, schedule *models.Schedule) error {
	if err := schedule.Validate(); err != nil {
		return fmt.Errorf("schedule %s: %w", schedule.ID, err)
	}

	if err := schedule.UpdateNextDueAt(s.clock()); err != nil {
		return fmt.Errorf("schedule %s: %w", schedule.ID, err)
	}

	if err := s.store.Put(ctx, scheduleKeyPrefix+schedule.ID, schedule); err != nil {
		return err
	}

	s.mu.Lock()
	s.schedules[schedule.ID] = schedule
	s.mu.Unlock()

	s.logger.Info("Schedule added", "schedule_id", schedule.ID, "type", schedule.Type)

	return nil
}

// Remove drops a schedule from the set and the store.
func (s *Scheduler) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.schedules, id)
	s.mu.Unlock()

	return s.store.Delete(ctx, scheduleKeyPrefix+id)
}

// Start loads persisted schedules and begins the polling loop. It returns
// immediately; Stop waits for in-flight executions.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.loadSchedules(ctx); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)

	go s.loop(loopCtx)

	s.logger.Info("Scheduler started", "tick", s.tick.String())

	return nil
}

// Stop halts the polling loop and waits for running executions.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}

	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) loadSchedules(ctx context.Context) error {
	keys, err := s.store.List(ctx, scheduleKeyPrefix)
	if err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		var schedule models.Schedule
		if err := s.store.Get(ctx, key, &schedule); err != nil {
			s.logger.Warn("Skipping unreadable schedule", "key", key, "error", err)

			continue
		}

		s.schedules[schedule.ID] = &schedule
	}

	s.logger.Info("Schedules loaded", "count", len(s.schedules))

	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evaluate(ctx)
		}
	}
}

// evaluate fires every due time-based schedule. Runs happen in their own
// goroutines so a slow workflow never delays the tick.
func (s *Scheduler) evaluate(ctx context.Context) {
	now := s.clock()

	s.mu.Lock()
	due := make([]*models.Schedule, 0)

	for _, schedule := range s.schedules {
		switch schedule.Type {
		case models.ScheduleTypeCron, models.ScheduleTypeInterval:
			if schedule.IsDue(now) {
				due = append(due, schedule)

				if err := schedule.UpdateNextDueAt(now); err != nil {
					s.logger.Error("Failed to advance schedule", "schedule_id", schedule.ID, "error", err)
				}
			}
		case models.ScheduleTypeConditional:
			if schedule.Enabled && s.conditionHolds(schedule) {
				due = append(due, schedule)
			}
		}
	}
	s.mu.Unlock()

	for _, schedule := range due {
		if err := s.store.Put(ctx, scheduleKeyPrefix+schedule.ID, schedule); err != nil {
			s.logger.Warn("Failed to persist schedule state", "schedule_id", schedule.ID, "error", err)
		}

		s.fire(ctx, schedule, 1)
	}
}

func (s *Scheduler) conditionHolds(schedule *models.Schedule) bool {
	vars := map[string]any{}
	if s.variables != nil {
		vars = s.variables(schedule.WorkflowID)
	}

	holds, err := workflow.EvalCondition(schedule.Expression, vars)
	if err != nil {
		s.logger.Warn("Conditional schedule expression failed",
			"schedule_id", schedule.ID,
			"error", err,
		)

		return false
	}

	return holds
}

// HandleEvent fires every enabled webhook/event schedule whose source and
// filters match the payload. It returns the execution ids started.
func (s *Scheduler) HandleEvent(ctx context.Context, source string, payload map[string]any) []string {
	s.mu.Lock()
	matched := make([]*models.Schedule, 0)

	for _, schedule := range s.schedules {
		if !schedule.Enabled || schedule.Source != source {
			continue
		}

		if schedule.Type != models.ScheduleTypeWebhook && schedule.Type != models.ScheduleTypeEvent {
			continue
		}

		if filtersMatch(schedule.Filters, payload) {
			matched = append(matched, schedule)
		}
	}
	s.mu.Unlock()

	ids := make([]string, 0, len(matched))
	for _, schedule := range matched {
		ids = append(ids, s.fire(ctx, schedule, 1))
	}

	return ids
}

func filtersMatch(filters []models.Filter, payload map[string]any) bool {
	for _, filter := range filters {
		if !filter.Matches(payload) {
			return false
		}
	}

	return true
}

// fire starts one execution of a schedule in its own goroutine and
// returns the execution id.
func (s *Scheduler) fire(ctx context.Context, schedule *models.Schedule, attempt int) string {
	execution := &models.ScheduleExecution{
		ID:         "sched-exec-" + uuid.New().String()[:8],
		ScheduleID: schedule.ID,
		WorkflowID: schedule.WorkflowID,
		Status:     models.ExecutionStatusScheduled,
		Attempt:    attempt,
		StartedAt:  s.clock(),
	}

	s.recordExecution(ctx, execution)
	s.publishFired(ctx, schedule, execution)

	s.wg.Add(1)

	go s.run(ctx, schedule, execution)

	return execution.ID
}

func (s *Scheduler) run(ctx context.Context, schedule *models.Schedule, execution *models.ScheduleExecution) {
	defer s.wg.Done()

	execution.Status = models.ExecutionStatusRunning
	s.recordExecution(ctx, execution)

	err := s.runner.Run(ctx, schedule.WorkflowID)

	finished := s.clock()
	execution.FinishedAt = &finished

	if err == nil {
		execution.Status = models.ExecutionStatusCompleted
		s.recordExecution(ctx, execution)

		return
	}

	execution.Status = models.ExecutionStatusFailed
	execution.Error = err.Error()
	s.recordExecution(ctx, execution)

	s.logger.Error("Scheduled execution failed",
		"schedule_id", schedule.ID,
		"execution_id", execution.ID,
		"attempt", execution.Attempt,
		"error", err,
	)

	s.maybeRetry(ctx, schedule, execution)
}

// maybeRetry queues the next attempt under the schedule's retry policy.
// MaxAttempts is the retry budget: the failure of attempt n <= MaxAttempts
// schedules retry n, so a policy of 3 yields four runs in total before the
// execution is left terminal failed.
func (s *Scheduler) maybeRetry(ctx context.Context, schedule *models.Schedule, execution *models.ScheduleExecution) {
	policy := schedule.Retry
	if policy == nil || execution.Attempt > policy.MaxAttempts {
		return
	}

	delay := backoffDelay(policy, execution.Attempt)

	s.publishRetry(ctx, schedule, execution, delay)
	s.logger.Info("Retry queued",
		"schedule_id", schedule.ID,
		"attempt", execution.Attempt+1,
		"delay", delay.String(),
	)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.fire(ctx, schedule, execution.Attempt+1)
		}
	}()
}

// backoffDelay computes the wait before retrying after a failed attempt:
// min(MaxDelay, base*multiplier^(attempt-1)).
func backoffDelay(policy *models.RetryPolicy, attempt int) time.Duration {
	delay := time.Duration(float64(backoffBaseUnit) * math.Pow(policy.BackoffMultiplier, float64(attempt-1)))

	maxDelay := time.Duration(policy.MaxDelayMs) * time.Millisecond
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}

	return delay
}

// History returns recorded executions, most recent last.
func (s *Scheduler) History(ctx context.Context) ([]models.ScheduleExecution, error) {
	keys, err := s.store.List(ctx, executionKeyPrefix)
	if err != nil {
		return nil, err
	}

	history := make([]models.ScheduleExecution, 0, len(keys))

	for _, key := range keys {
		var execution models.ScheduleExecution
		if err := s.store.Get(ctx, key, &execution); err != nil {
			s.logger.Warn("Skipping unreadable execution record", "key", key, "error", err)

			continue
		}

		history = append(history, execution)
	}

	return history, nil
}

func (s *Scheduler) recordExecution(ctx context.Context, execution *models.ScheduleExecution) {
	if err := s.store.Put(ctx, executionKeyPrefix+execution.ID, execution); err != nil {
		s.logger.Warn("Failed to record execution",
			"execution_id", execution.ID,
			"error", err,
		)
	}
}

func (s *Scheduler) publishFired(ctx context.Context, schedule *models.Schedule, execution *models.ScheduleExecution) {
	if s.bus == nil {
		return
	}

	event := events.ScheduleFired{
		BaseEvent:   events.NewBase(uuid.New().String(), events.ScheduleFiredEvent, schedule.WorkflowID),
		ScheduleID:  schedule.ID,
		ExecutionID: execution.ID,
		Attempt:     execution.Attempt,
	}

	if err := s.bus.Publish(ctx, schedule.WorkflowID, event); err != nil {
		s.logger.Warn("Failed to publish schedule fired event", "error", err)
	}
}

func (s *Scheduler) publishRetry(ctx context.Context, schedule *models.Schedule, execution *models.ScheduleExecution, delay time.Duration) {
	if s.bus == nil {
		return
	}

	event := events.RetryScheduled{
		BaseEvent:   events.NewBase(uuid.New().String(), events.RetryScheduledEvent, schedule.WorkflowID),
		ScheduleID:  schedule.ID,
		ExecutionID: execution.ID,
		Attempt:     execution.Attempt + 1,
		DelayMs:     delay.Milliseconds(),
	}

	if err := s.bus.Publish(ctx, schedule.WorkflowID, event); err != nil {
		s.logger.Warn("Failed to publish retry event", "error", err)
	}
}
