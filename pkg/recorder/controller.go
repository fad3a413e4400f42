package recorder

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
)

// Controller collects actions captured in a separate browsing context.
// Envelopes may arrive duplicated or out of order; actions are deduped by
// ID and ordered on completion. A closed context is an implicit stop.
type Controller struct {
	mu       sync.Mutex
	logger   *slog.Logger
	actions  map[int64]models.Action
	done     bool
	complete func(actions []models.Action)
}

// NewController creates a controller for one remote recording surface.
func NewController(logger *slog.Logger, onComplete func(actions []models.Action)) *Controller {
	return &Controller{
		logger:   logger.With("module", "recorder_controller"),
		actions:  make(map[int64]models.Action),
		complete: onComplete,
	}
}

// Receive handles one inbound envelope.
func (c *Controller) Receive(envelope Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return
	}

	switch envelope.Type {
	case EnvelopeTypeAction:
		var action models.Action
		if err := json.Unmarshal(envelope.Payload, &action); err != nil {
			c.logger.Warn("Dropping undecodable action envelope", "error", err)

			return
		}

		if _, seen := c.actions[action.ID]; seen {
			c.logger.Debug("Dropping duplicate action", "action_id", action.ID)

			return
		}

		c.actions[action.ID] = action
	case EnvelopeTypeComplete:
		c.finishLocked()
	default:
		c.logger.Warn("Dropping envelope of unknown type", "type", string(envelope.Type))
	}
}

// SurfaceClosed is called when the remote browsing context disappears.
// It is treated as an implicit stop.
func (c *Controller) SurfaceClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.done {
		c.logger.Info("Remote surface closed, finalizing session")
		c.finishLocked()
	}
}

func (c *Controller) finishLocked() {
	c.done = true

	actions := make([]models.Action, 0, len(c.actions))
	for _, action := range c.actions {
		actions = append(actions, action)
	}

	sort.Slice(actions, func(i, j int) bool {
		if actions[i].Timestamp != actions[j].Timestamp {
			return actions[i].Timestamp < actions[j].Timestamp
		}

		return actions[i].ID < actions[j].ID
	})

	if c.complete != nil {
		c.complete(actions)
	}
}
