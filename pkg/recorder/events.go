// Package recorder captures user interaction events from a recording
// surface and turns them into ordered, replayable action lists.
package recorder

import "context"

// EventType classifies a raw interaction event delivered by the surface.
type EventType string

const (
	EventTypeClick    EventType = "click"
	EventTypeInput    EventType = "input"
	EventTypeKeydown  EventType = "keydown"
	EventTypeNavigate EventType = "navigate"
	EventTypeScroll   EventType = "scroll"
)

// InteractionEvent is one raw event as delivered by the capture surface,
// before it is normalized into a models.Action.
type InteractionEvent struct {
	Type       EventType
	Tag        string
	Attributes map[string]string
	Value      string
	Key        string
	X          float64
	Y          float64
	PageURL    string
}

// Handler receives interaction events synchronously on the surface's
// dispatch path. Implementations must not block.
type Handler func(event InteractionEvent)

// EventSource is a capture surface: the platform delivers an ordered
// stream of interaction events to the registered handler. A full page
// navigation can tear the surface down; Alive reports whether the capture
// hooks are still in place so the recorder can re-attach.
type EventSource interface {
	Attach(ctx context.Context, handler Handler) error
	Detach() error
	Alive() bool
}
