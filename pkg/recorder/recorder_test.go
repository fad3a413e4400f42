package recorder

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
)

type fakeSource struct {
	mu       sync.Mutex
	handler  Handler
	alive    bool
	attaches int
	detaches int
}

func (f *fakeSource) Attach(_ context.Context, handler Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
	f.alive = true
	f.attaches++

	return nil
}

func (f *fakeSource) Detach() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive = false
	f.detaches++

	return nil
}

func (f *fakeSource) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.alive
}

func (f *fakeSource) emit(event InteractionEvent) {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()

	if handler != nil {
		handler(event)
	}
}

// kill simulates a navigation tearing down the capture hooks.
func (f *fakeSource) kill() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive = false
}

type failingStore struct{}

func (failingStore) Put(context.Context, string, any) error      { return errors.New("disk full") }
func (failingStore) Get(context.Context, string, any) error     { return errors.New("disk full") }
func (failingStore) List(context.Context, string) ([]string, error) {
	return nil, errors.New("disk full")
}
func (failingStore) Delete(context.Context, string) error      { return errors.New("disk full") }
func (failingStore) HealthCheck(context.Context) error         { return errors.New("disk full") }
func (failingStore) Close(context.Context) error               { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func clickEvent(id string) InteractionEvent {
	return InteractionEvent{
		Type:       EventTypeClick,
		Tag:        "button",
		Attributes: map[string]string{"id": id},
		X:          10,
		Y:          20,
		PageURL:    "https://example.com",
	}
}

func TestRecorderLifecycle(t *testing.T) {
	source := &fakeSource{}
	rec := NewRecorder(source, testLogger())

	require.False(t, rec.Recording())
	require.NoError(t, rec.Start(context.Background()))
	assert.True(t, rec.Recording())

	source.emit(clickEvent("login"))
	source.emit(InteractionEvent{
		Type:       EventTypeInput,
		Tag:        "input",
		Attributes: map[string]string{"type": "email", "name": "email"},
		Value:      "alice@example.com",
		PageURL:    "https://example.com",
	})

	actions, err := rec.Stop()
	require.NoError(t, err)
	assert.False(t, rec.Recording())
	require.Len(t, actions, 2)

	assert.Equal(t, models.ActionKindClick, actions[0].Kind)
	assert.Equal(t, "#login", actions[0].Locator)
	require.NotNil(t, actions[0].Coordinates)
	assert.Equal(t, 10.0, actions[0].Coordinates.X)

	assert.Equal(t, models.ActionKindInput, actions[1].Kind)
	assert.Equal(t, `input[type="email"][name="email"]`, actions[1].Locator)
	assert.Equal(t, "alice@example.com", actions[1].Value)
}

func TestRecorderDoubleStart(t *testing.T) {
	source := &fakeSource{}
	rec := NewRecorder(source, testLogger())

	require.NoError(t, rec.Start(context.Background()))
	assert.ErrorIs(t, rec.Start(context.Background()), ErrAlreadyRecording)

	// The guard must keep listeners from attaching twice.
	assert.Equal(t, 1, source.attaches)

	_, err := rec.Stop()
	require.NoError(t, err)
}

func TestRecorderStopWithoutStart(t *testing.T) {
	rec := NewRecorder(&fakeSource{}, testLogger())

	_, err := rec.Stop()
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestRecorderActionOrdering(t *testing.T) {
	source := &fakeSource{}
	rec := NewRecorder(source, testLogger())

	require.NoError(t, rec.Start(context.Background()))

	for range 20 {
		source.emit(clickEvent("btn"))
	}

	actions, err := rec.Stop()
	require.NoError(t, err)
	require.Len(t, actions, 20)

	for i := 1; i < len(actions); i++ {
		assert.LessOrEqual(t, actions[i-1].Timestamp, actions[i].Timestamp)
		assert.Equal(t, actions[i-1].ID+1, actions[i].ID)
	}
}

func TestRecorderEscapeStops(t *testing.T) {
	source := &fakeSource{}
	rec := NewRecorder(source, testLogger())

	var (
		completed []models.Action
		notified  bool
	)

	rec.OnComplete(func(actions []models.Action) {
		completed = actions
		notified = true
	})

	require.NoError(t, rec.Start(context.Background()))
	source.emit(clickEvent("save"))
	source.emit(InteractionEvent{Type: EventTypeKeydown, Key: "Escape"})

	assert.False(t, rec.Recording())
	assert.True(t, notified)
	require.Len(t, completed, 1)
	assert.Equal(t, "#save", completed[0].Locator)
}

func TestRecorderCompletionCallbackMayReenter(t *testing.T) {
	source := &fakeSource{}
	rec := NewRecorder(source, testLogger())

	// The callback runs outside the recorder lock, so it may call straight
	// back into the recorder, here restarting a fresh session.
	restarted := false

	rec.OnComplete(func([]models.Action) {
		assert.False(t, rec.Recording())

		if !restarted {
			restarted = true

			assert.NoError(t, rec.Start(context.Background()))
		}
	})

	require.NoError(t, rec.Start(context.Background()))
	source.emit(clickEvent("once"))

	done := make(chan struct{})

	go func() {
		defer close(done)

		actions, err := rec.Stop()
		assert.NoError(t, err)
		assert.Len(t, actions, 1)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on its own completion callback")
	}

	assert.True(t, rec.Recording(), "callback restarted the session")
	assert.Equal(t, 2, source.attaches)

	_, err := rec.Stop()
	require.NoError(t, err)
}

func TestRecorderEscapeCallbackMayReenter(t *testing.T) {
	source := &fakeSource{}
	rec := NewRecorder(source, testLogger())

	rec.OnComplete(func([]models.Action) {
		assert.False(t, rec.Recording())
	})

	require.NoError(t, rec.Start(context.Background()))

	done := make(chan struct{})

	go func() {
		defer close(done)
		source.emit(InteractionEvent{Type: EventTypeKeydown, Key: "Escape"})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Escape stop blocked on its own completion callback")
	}

	assert.False(t, rec.Recording())
}

func TestRecorderStorageFailureIsSwallowed(t *testing.T) {
	source := &fakeSource{}
	rec := NewRecorder(source, testLogger(), WithStore(failingStore{}))

	require.NoError(t, rec.Start(context.Background()))
	source.emit(clickEvent("a"))
	source.emit(clickEvent("b"))

	// The buffer stays authoritative and exportable despite write failures.
	assert.Len(t, rec.Export(), 2)

	actions, err := rec.Stop()
	require.NoError(t, err)
	assert.Len(t, actions, 2)
}

func TestRecorderReattachAfterNavigation(t *testing.T) {
	source := &fakeSource{}
	rec := NewRecorder(source, testLogger(), WithLivenessInterval(5*time.Millisecond))

	require.NoError(t, rec.Start(context.Background()))
	source.emit(clickEvent("before"))

	source.kill()

	require.Eventually(t, func() bool {
		source.mu.Lock()
		defer source.mu.Unlock()

		return source.attaches >= 2
	}, time.Second, time.Millisecond)

	source.emit(clickEvent("after"))

	actions, err := rec.Stop()
	require.NoError(t, err)

	// Earlier actions survive re-attachment and nothing is double-counted.
	require.Len(t, actions, 2)
	assert.Equal(t, "#before", actions[0].Locator)
	assert.Equal(t, "#after", actions[1].Locator)
}

func TestRecorderIgnoresUnknownEventType(t *testing.T) {
	source := &fakeSource{}
	rec := NewRecorder(source, testLogger())

	require.NoError(t, rec.Start(context.Background()))
	source.emit(InteractionEvent{Type: EventType("hover")})
	source.emit(clickEvent("x"))

	actions, err := rec.Stop()
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, int64(1), actions[0].ID)
}
