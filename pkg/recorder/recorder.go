package recorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/persistence"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/selector"
)

var (
	// ErrAlreadyRecording is returned by Start when a session is active.
	ErrAlreadyRecording = errors.New("recording session already active")

	// ErrNotRecording is returned by Stop when no session is active.
	ErrNotRecording = errors.New("no active recording session")
)

const defaultLivenessInterval = 500 * time.Millisecond

// Option configures a Recorder.
type Option func(*Recorder)

// WithStore enables best-effort snapshot persistence after every append.
func WithStore(store persistence.Store) Option {
	return func(r *Recorder) { r.store = store }
}

// WithLivenessInterval overrides the surface liveness polling interval.
func WithLivenessInterval(interval time.Duration) Option {
	return func(r *Recorder) { r.livenessEvery = interval }
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) { r.clock = clock }
}

// Recorder owns at most one recording Session at a time. Events arrive
// synchronously from the EventSource; appends snapshot the session through
// the store when one is configured, swallowing storage failures so the
// dispatch path never degrades.
type Recorder struct {
	mu            sync.Mutex
	source        EventSource
	store         persistence.Store
	logger        *slog.Logger
	clock         func() time.Time
	livenessEvery time.Duration

	session    *models.Session
	nextID     int64
	onComplete func(actions []models.Action)
	stopPoll   chan struct{}
}

// NewRecorder creates a recorder bound to one capture surface.
func NewRecorder(source EventSource, logger *slog.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		source:        source,
		logger:        logger.With("module", "recorder"),
		clock:         time.Now,
		livenessEvery: defaultLivenessInterval,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// OnComplete registers a callback invoked with the finalized action list
// whenever the session stops, whether through Stop or an Escape keypress.
func (r *Recorder) OnComplete(callback func(actions []models.Action)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onComplete = callback
}

// Start begins a recording session. Starting while a session is active is
// rejected so listeners are never attached twice.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil && r.session.Active {
		return ErrAlreadyRecording
	}

	session := &models.Session{
		ID:        uuid.New().String(),
		StartedAt: r.clock(),
		Active:    true,
		Actions:   make([]models.Action, 0),
	}

	if err := r.source.Attach(ctx, r.handleEvent); err != nil {
		return err
	}

	r.session = session
	r.nextID = 0
	r.stopPoll = make(chan struct{})

	go r.pollLiveness(ctx, r.stopPoll)

	r.logger.Info("Recording started", "session_id", session.ID)

	return nil
}

// Stop detaches the capture surface, finalizes the buffer and returns the
// completed action list. The session is destroyed and not reused.
func (r *Recorder) Stop() ([]models.Action, error) {
	r.mu.Lock()
	actions, callback, err := r.stopLocked()
	r.mu.Unlock()

	if callback != nil {
		callback(actions)
	}

	return actions, err
}

// stopLocked tears the session down and hands back the completion callback
// instead of invoking it: callers run it after releasing r.mu, so a callback
// may re-enter the Recorder (Start, Recording) without deadlocking.
func (r *Recorder) stopLocked() ([]models.Action, func(actions []models.Action), error) {
	if r.session == nil || !r.session.Active {
		return nil, nil, ErrNotRecording
	}

	if err := r.source.Detach(); err != nil {
		r.logger.Warn("Failed to detach capture surface", "error", err)
	}

	close(r.stopPoll)

	r.session.Active = false
	actions := r.session.Actions
	r.persistSnapshot()

	r.logger.Info("Recording stopped",
		"session_id", r.session.ID,
		"actions", len(actions),
	)

	r.session = nil

	return actions, r.onComplete, nil
}

// Recording reports whether a session is active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.session != nil && r.session.Active
}

// Export returns a copy of the current buffer. It is the manual fallback
// when snapshot persistence is unavailable.
func (r *Recorder) Export() []models.Action {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return nil
	}

	actions := make([]models.Action, len(r.session.Actions))
	copy(actions, r.session.Actions)

	return actions
}

// handleEvent runs synchronously on the surface dispatch path.
func (r *Recorder) handleEvent(event InteractionEvent) {
	actions, callback := r.applyEvent(event)

	if callback != nil {
		callback(actions)
	}
}

func (r *Recorder) applyEvent(event InteractionEvent) ([]models.Action, func(actions []models.Action)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil || !r.session.Active {
		return nil, nil
	}

	// Escape on the local surface is a stop synonym.
	if event.Type == EventTypeKeydown && event.Key == "Escape" {
		actions, callback, err := r.stopLocked()
		if err != nil {
			r.logger.Warn("Escape stop failed", "error", err)
		}

		return actions, callback
	}

	action, ok := r.buildAction(event)
	if !ok {
		return nil, nil
	}

	r.session.Actions = append(r.session.Actions, action)
	r.persistSnapshot()

	return nil, nil
}

func (r *Recorder) buildAction(event InteractionEvent) (models.Action, bool) {
	r.nextID++

	action := models.Action{
		ID:         r.nextID,
		Timestamp:  r.clock().Sub(r.session.StartedAt).Milliseconds(),
		Locator:    selector.Synthesize(selector.Describe(event.Tag, event.Attributes)),
		ElementTag: event.Tag,
		PageURL:    event.PageURL,
	}

	switch event.Type {
	case EventTypeClick:
		action.Kind = models.ActionKindClick
		action.Coordinates = &models.Point{X: event.X, Y: event.Y}
	case EventTypeInput:
		action.Kind = models.ActionKindInput
		action.Value = event.Value
	case EventTypeKeydown:
		action.Kind = models.ActionKindKeypress
		action.Value = event.Key
	case EventTypeNavigate:
		action.Kind = models.ActionKindNavigation
		action.Locator = ""
		action.ElementTag = ""
	case EventTypeScroll:
		action.Kind = models.ActionKindScroll
		action.Coordinates = &models.Point{X: event.X, Y: event.Y}
		action.Locator = ""
		action.ElementTag = ""
	default:
		r.nextID--

		return models.Action{}, false
	}

	return action, true
}

// persistSnapshot writes the session after every append so captured
// actions survive navigation and unload. Failures are swallowed: the
// in-memory buffer stays authoritative and Export offers it for manual
// retrieval.
func (r *Recorder) persistSnapshot() {
	if r.store == nil || r.session == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := r.store.Put(ctx, "sessions/"+r.session.ID, r.session); err != nil {
		r.logger.Warn("Snapshot persistence failed, keeping in-memory buffer",
			"session_id", r.session.ID,
			"error", err,
		)
	}
}

// pollLiveness re-establishes capture hooks when a navigation tears the
// surface down while the session is still marked active. Previously
// captured actions are kept and the re-attachment itself is never counted.
func (r *Recorder) pollLiveness(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(r.livenessEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reattachIfNeeded(ctx)
		}
	}
}

func (r *Recorder) reattachIfNeeded(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil || !r.session.Active || r.source.Alive() {
		return
	}

	r.logger.Info("Capture surface lost, re-attaching", "session_id", r.session.ID)

	if err := r.source.Attach(ctx, r.handleEvent); err != nil {
		r.logger.Warn("Re-attach failed, will retry", "error", err)
	}
}
