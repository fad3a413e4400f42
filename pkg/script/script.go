// Package script renders a recorded action list into a replayable,
// engine-agnostic automation script. Output is deterministic: the same
// action list always yields byte-identical text.
package script

import (
	"fmt"
	"strings"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
)

const (
	header = "// autoflow replay script\n// generated from a recorded session\n"
	footer = "// end of script\n"
)

// Generate renders the ordered action list grouped by page URL in
// first-seen order, one statement per action. It is a pure function with
// no network or storage access.
func Generate(actions []models.Action) string {
	var b strings.Builder

	b.WriteString(header)

	for _, group := range groupByPage(actions) {
		b.WriteString("\n// page: ")
		b.WriteString(group.url)
		b.WriteString("\n")

		for _, action := range group.actions {
			b.WriteString(statement(action))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(footer)

	return b.String()
}

type pageGroup struct {
	url     string
	actions []models.Action
}

// groupByPage buckets actions by PageURL, preserving the order in which
// each URL was first seen and the action order within each bucket.
func groupByPage(actions []models.Action) []pageGroup {
	index := make(map[string]int)

	groups := make([]pageGroup, 0)

	for _, action := range actions {
		i, seen := index[action.PageURL]
		if !seen {
			i = len(groups)
			index[action.PageURL] = i

			groups = append(groups, pageGroup{url: action.PageURL})
		}

		groups[i].actions = append(groups[i].actions, action)
	}

	return groups
}

func statement(action models.Action) string {
	switch action.Kind {
	case models.ActionKindClick:
		return fmt.Sprintf("click(%q)", action.Locator)
	case models.ActionKindInput:
		return fmt.Sprintf("fill(%q, %q)", action.Locator, action.Value)
	case models.ActionKindKeypress:
		return fmt.Sprintf("press(%q)", action.Value)
	case models.ActionKindNavigation:
		return fmt.Sprintf("navigate(%q)", action.PageURL)
	case models.ActionKindScroll:
		x, y := 0.0, 0.0
		if action.Coordinates != nil {
			x, y = action.Coordinates.X, action.Coordinates.Y
		}

		return fmt.Sprintf("scroll(%g, %g)", x, y)
	default:
		return fmt.Sprintf("// unsupported action kind %q", action.Kind)
	}
}
