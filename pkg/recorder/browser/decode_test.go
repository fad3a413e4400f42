package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/recorder"
)

func TestDecodeEvent(t *testing.T) {
	raw := `{"type":"click","tag":"button","attrs":{"id":"login"},"x":12,"y":34,"url":"https://example.com/"}`

	event, ok := decodeEvent(raw)
	require.True(t, ok)
	assert.Equal(t, recorder.EventTypeClick, event.Type)
	assert.Equal(t, "button", event.Tag)
	assert.Equal(t, "login", event.Attributes["id"])
	assert.Equal(t, 12.0, event.X)
	assert.Equal(t, "https://example.com/", event.PageURL)
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	_, ok := decodeEvent("not json")
	assert.False(t, ok)

	_, ok = decodeEvent(`{"type":"hover"}`)
	assert.False(t, ok)
}
