// Package compile turns captured action lists into executable workflow
// graphs: one manual trigger followed by a linear chain of browser nodes.
package compile

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
)

// BrowserService is the capability name compiled nodes dispatch against.
const BrowserService = "browser"

// FromActions builds a workflow replaying the given actions in order. The
// input list is assumed to be in capture order; the compiler does not
// re-sort it.
func FromActions(name string, actions []models.Action) *models.Workflow {
	now := time.Now().UTC()

	wf := &models.Workflow{
		ID:        "wf-" + uuid.New().String()[:8],
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	trigger := &models.WorkflowNode{
		ID:      "trigger",
		Type:    models.NodeTypeTrigger,
		Name:    "manual start",
		Service: "manual",
		Enabled: true,
	}
	wf.Nodes = append(wf.Nodes, trigger)

	previous := trigger

	for i, action := range actions {
		node := &models.WorkflowNode{
			ID:        fmt.Sprintf("step-%d", i+1),
			Type:      models.NodeTypeAction,
			Name:      nodeName(action),
			Service:   BrowserService,
			Operation: operationFor(action.Kind),
			Config:    configFor(action),
			Enabled:   true,
		}

		previous.Outgoing = append(previous.Outgoing, node.ID)
		wf.Nodes = append(wf.Nodes, node)
		previous = node
	}

	wf.SyncConnections()

	return wf
}

func operationFor(kind models.ActionKind) string {
	switch kind {
	case models.ActionKindClick:
		return "click"
	case models.ActionKindInput:
		return "fill"
	case models.ActionKindKeypress:
		return "press"
	case models.ActionKindNavigation:
		return "navigate"
	case models.ActionKindScroll:
		return "scroll"
	default:
		return string(kind)
	}
}

func configFor(action models.Action) map[string]any {
	config := map[string]any{}

	switch action.Kind {
	case models.ActionKindClick:
		config["locator"] = action.Locator
	case models.ActionKindInput:
		config["locator"] = action.Locator
		config["value"] = action.Value
	case models.ActionKindKeypress:
		config["key"] = action.Value
	case models.ActionKindNavigation:
		config["url"] = action.PageURL
	case models.ActionKindScroll:
		if action.Coordinates != nil {
			config["x"] = action.Coordinates.X
			config["y"] = action.Coordinates.Y
		}
	}

	return config
}

func nodeName(action models.Action) string {
	switch action.Kind {
	case models.ActionKindClick:
		return "click " + action.Locator
	case models.ActionKindInput:
		return "fill " + action.Locator
	case models.ActionKindKeypress:
		return "press " + action.Value
	case models.ActionKindNavigation:
		return "navigate to " + action.PageURL
	case models.ActionKindScroll:
		return "scroll"
	default:
		return string(action.Kind)
	}
}
