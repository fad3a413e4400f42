package recorder

import (
	"encoding/json"
	"log/slog"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
)

// EnvelopeType discriminates cross-surface messages.
type EnvelopeType string

const (
	// EnvelopeTypeAction carries one captured action.
	EnvelopeTypeAction EnvelopeType = "ACTION"

	// EnvelopeTypeComplete signals the remote session has stopped.
	EnvelopeTypeComplete EnvelopeType = "COMPLETE"
)

// Envelope is the fire-and-forget message sent from a remote recording
// surface to its controller. Delivery is at-most-once per send and not
// guaranteed; the controller dedupes by action ID and tolerates loss.
type Envelope struct {
	Type    EnvelopeType    `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewActionEnvelope wraps a captured action for transport.
func NewActionEnvelope(action models.Action) (Envelope, error) {
	payload, err := json.Marshal(action)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{Type: EnvelopeTypeAction, Payload: payload}, nil
}

// NewCompleteEnvelope signals end of the remote session.
func NewCompleteEnvelope() Envelope {
	return Envelope{Type: EnvelopeTypeComplete}
}

// Channel is a one-way unreliable transport toward the controller.
type Channel interface {
	Send(envelope Envelope) error
}

// Forwarder relays captured actions over a channel as they happen.
// Delivery failures are logged and never interrupt local recording.
type Forwarder struct {
	channel Channel
	logger  *slog.Logger
}

// NewForwarder creates a forwarder over the given channel.
func NewForwarder(channel Channel, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		channel: channel,
		logger:  logger.With("module", "recorder_forwarder"),
	}
}

// ForwardAction sends one action, best effort.
func (f *Forwarder) ForwardAction(action models.Action) {
	envelope, err := NewActionEnvelope(action)
	if err != nil {
		f.logger.Warn("Failed to encode action envelope", "action_id", action.ID, "error", err)

		return
	}

	if err := f.channel.Send(envelope); err != nil {
		f.logger.Warn("Action delivery failed, recording continues locally",
			"action_id", action.ID,
			"error", err,
		)
	}
}

// ForwardComplete signals session completion, best effort.
func (f *Forwarder) ForwardComplete() {
	if err := f.channel.Send(NewCompleteEnvelope()); err != nil {
		f.logger.Warn("Completion delivery failed", "error", err)
	}
}
