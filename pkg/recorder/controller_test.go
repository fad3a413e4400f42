package recorder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
)

func actionEnvelope(t *testing.T, action models.Action) Envelope {
	t.Helper()

	envelope, err := NewActionEnvelope(action)
	require.NoError(t, err)

	return envelope
}

func TestControllerDedupesAndOrders(t *testing.T) {
	var got []models.Action

	ctrl := NewController(testLogger(), func(actions []models.Action) { got = actions })

	first := models.Action{ID: 1, Kind: models.ActionKindClick, Timestamp: 100, Locator: "#a"}
	second := models.Action{ID: 2, Kind: models.ActionKindInput, Timestamp: 250, Locator: "#b", Value: "x"}

	// Out of order, with a duplicate delivery of the first action.
	ctrl.Receive(actionEnvelope(t, second))
	ctrl.Receive(actionEnvelope(t, first))
	ctrl.Receive(actionEnvelope(t, first))
	ctrl.Receive(NewCompleteEnvelope())

	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
}

func TestControllerSurfaceClosedIsImplicitStop(t *testing.T) {
	var (
		got      []models.Action
		notified int
	)

	ctrl := NewController(testLogger(), func(actions []models.Action) {
		got = actions
		notified++
	})

	ctrl.Receive(actionEnvelope(t, models.Action{ID: 1, Kind: models.ActionKindClick, Timestamp: 5}))
	ctrl.SurfaceClosed()
	ctrl.SurfaceClosed() // idempotent

	assert.Equal(t, 1, notified)
	assert.Len(t, got, 1)
}

func TestControllerIgnoresEnvelopesAfterComplete(t *testing.T) {
	var got []models.Action

	ctrl := NewController(testLogger(), func(actions []models.Action) { got = actions })

	ctrl.Receive(NewCompleteEnvelope())
	ctrl.Receive(actionEnvelope(t, models.Action{ID: 9, Kind: models.ActionKindClick}))

	assert.Empty(t, got)
}

func TestControllerDropsMalformedPayload(t *testing.T) {
	var completed bool

	ctrl := NewController(testLogger(), func([]models.Action) { completed = true })

	ctrl.Receive(Envelope{Type: EnvelopeTypeAction, Payload: []byte("not json")})
	ctrl.Receive(Envelope{Type: EnvelopeType("NOISE")})

	assert.False(t, completed)
}

type failingChannel struct{ sends int }

func (c *failingChannel) Send(Envelope) error {
	c.sends++

	return errors.New("window closed")
}

func TestForwarderToleratesDeliveryFailure(t *testing.T) {
	channel := &failingChannel{}
	forwarder := NewForwarder(channel, testLogger())

	forwarder.ForwardAction(models.Action{ID: 1, Kind: models.ActionKindClick})
	forwarder.ForwardComplete()

	// Both sends were attempted; neither failure propagated.
	assert.Equal(t, 2, channel.sends)
}
