// Package models defines the core domain models for action capture and
// node-based workflow automation.
package models

import "time"

// ActionKind classifies one captured user interaction.
type ActionKind string

const (
	ActionKindClick      ActionKind = "click"
	ActionKindInput      ActionKind = "input"
	ActionKindKeypress   ActionKind = "keypress"
	ActionKindNavigation ActionKind = "navigation"
	ActionKindScroll     ActionKind = "scroll"
)

// Point is a viewport coordinate pair captured alongside click actions.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Action is one captured interaction, immutable once created. IDs are
// monotonic within a recording session and Timestamp is the millisecond
// offset from the session start.
type Action struct {
	ID          int64      `json:"id"`
	Kind        ActionKind `json:"kind"        validate:"required"`
	Timestamp   int64      `json:"timestamp"`
	Locator     string     `json:"locator"`
	ElementTag  string     `json:"element_tag,omitempty"`
	Value       string     `json:"value,omitempty"`
	Coordinates *Point     `json:"coordinates,omitempty"`
	PageURL     string     `json:"page_url"`
}

// Session is a single recording run. Exactly one session may be active per
// recording surface; the action list is handed off when the session stops
// and the session itself is not reused.
type Session struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Active    bool      `json:"active"`
	Actions   []Action  `json:"actions"`
}
