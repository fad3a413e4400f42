package replay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
)

// Replayer dispatches a captured action list against a Driver in order.
type Replayer struct {
	driver Driver
	logger *slog.Logger
	pause  time.Duration
}

// ReplayerOption configures a Replayer.
type ReplayerOption func(*Replayer)

// WithPause sets the wait between dispatched actions.
func WithPause(pause time.Duration) ReplayerOption {
	return func(r *Replayer) { r.pause = pause }
}

// NewReplayer wraps a driver. The default inter-action pause is 500ms.
func NewReplayer(driver Driver, logger *slog.Logger, opts ...ReplayerOption) *Replayer {
	r := &Replayer{
		driver: driver,
		logger: logger.With("module", "replayer"),
		pause:  500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run replays the actions in list order. The first dispatch failure stops
// the run; actions already dispatched are not rolled back.
func (r *Replayer) Run(ctx context.Context, actions []models.Action) error {
	for i, action := range actions {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.logger.Info("Replaying action",
			"index", i,
			"kind", action.Kind,
			"locator", action.Locator,
		)

		if err := r.dispatch(ctx, action); err != nil {
			return fmt.Errorf("action %d (%s): %w", action.ID, action.Kind, err)
		}

		if r.pause > 0 && i < len(actions)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.pause):
			}
		}
	}

	return nil
}

func (r *Replayer) dispatch(ctx context.Context, action models.Action) error {
	switch action.Kind {
	case models.ActionKindClick:
		return r.driver.Click(ctx, action.Locator)
	case models.ActionKindInput:
		return r.driver.Fill(ctx, action.Locator, action.Value)
	case models.ActionKindKeypress:
		return r.driver.Press(ctx, action.Value)
	case models.ActionKindNavigation:
		return r.driver.Navigate(ctx, action.PageURL)
	case models.ActionKindScroll:
		if action.Coordinates == nil {
			return fmt.Errorf("scroll action without coordinates")
		}

		return r.driver.Scroll(ctx, action.Coordinates.X, action.Coordinates.Y)
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}
