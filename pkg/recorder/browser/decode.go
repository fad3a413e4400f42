package browser

import (
	"encoding/json"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/recorder"
)

type capturePayload struct {
	Type  string            `json:"type"`
	Tag   string            `json:"tag"`
	Attrs map[string]string `json:"attrs"`
	Value string            `json:"value"`
	Key   string            `json:"key"`
	X     float64           `json:"x"`
	Y     float64           `json:"y"`
	URL   string            `json:"url"`
}

// decodeEvent parses the JSON payload sent by the injected capture hooks.
func decodeEvent(raw string) (recorder.InteractionEvent, bool) {
	var payload capturePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return recorder.InteractionEvent{}, false
	}

	var eventType recorder.EventType

	switch payload.Type {
	case "click":
		eventType = recorder.EventTypeClick
	case "input":
		eventType = recorder.EventTypeInput
	case "keydown":
		eventType = recorder.EventTypeKeydown
	case "navigate":
		eventType = recorder.EventTypeNavigate
	case "scroll":
		eventType = recorder.EventTypeScroll
	default:
		return recorder.InteractionEvent{}, false
	}

	return recorder.InteractionEvent{
		Type:       eventType,
		Tag:        payload.Tag,
		Attributes: payload.Attrs,
		Value:      payload.Value,
		Key:        payload.Key,
		X:          payload.X,
		Y:          payload.Y,
		PageURL:    payload.URL,
	}, true
}
