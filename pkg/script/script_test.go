package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
)

func sampleActions() []models.Action {
	return []models.Action{
		{ID: 1, Kind: models.ActionKindClick, Timestamp: 10, Locator: "#login", PageURL: "https://example.com/login"},
		{ID: 2, Kind: models.ActionKindInput, Timestamp: 40, Locator: `input[type="email"][name="email"]`, Value: "alice@example.com", PageURL: "https://example.com/login"},
		{ID: 3, Kind: models.ActionKindNavigation, Timestamp: 90, PageURL: "https://example.com/home"},
		{ID: 4, Kind: models.ActionKindKeypress, Timestamp: 120, Value: "Enter", PageURL: "https://example.com/home"},
	}
}

func TestGenerateDeterminism(t *testing.T) {
	actions := sampleActions()

	first := Generate(actions)

	for range 10 {
		assert.Equal(t, first, Generate(sampleActions()))
	}
}

func TestGenerateGroupsByFirstSeenURL(t *testing.T) {
	actions := []models.Action{
		{ID: 1, Kind: models.ActionKindClick, Locator: "#a", PageURL: "https://b.example"},
		{ID: 2, Kind: models.ActionKindClick, Locator: "#b", PageURL: "https://a.example"},
		{ID: 3, Kind: models.ActionKindClick, Locator: "#c", PageURL: "https://b.example"},
	}

	out := Generate(actions)

	firstPage := strings.Index(out, "// page: https://b.example")
	secondPage := strings.Index(out, "// page: https://a.example")
	require.Positive(t, firstPage)
	require.Positive(t, secondPage)
	assert.Less(t, firstPage, secondPage)

	// Actions for a URL stay together in capture order.
	assert.Less(t, strings.Index(out, `click("#a")`), strings.Index(out, `click("#c")`))
}

func TestGenerateStatements(t *testing.T) {
	out := Generate(sampleActions())

	assert.Contains(t, out, `click("#login")`)
	assert.Contains(t, out, `fill("input[type=\"email\"][name=\"email\"]", "alice@example.com")`)
	assert.Contains(t, out, `navigate("https://example.com/home")`)
	assert.Contains(t, out, `press("Enter")`)
	assert.True(t, strings.HasPrefix(out, "// autoflow replay script\n"))
	assert.True(t, strings.HasSuffix(out, "// end of script\n"))
}

func TestGenerateEndToEndScenario(t *testing.T) {
	// Recording one click on #login and one input into the email field
	// yields exactly those two statements, in order.
	actions := []models.Action{
		{ID: 1, Kind: models.ActionKindClick, Timestamp: 5, Locator: "#login", PageURL: "https://example.com"},
		{ID: 2, Kind: models.ActionKindInput, Timestamp: 25, Locator: `input[type="email"][name="email"]`, Value: "alice@example.com", PageURL: "https://example.com"},
	}

	out := Generate(actions)

	var statements []string

	for _, line := range strings.Split(out, "\n") {
		if line != "" && !strings.HasPrefix(line, "//") {
			statements = append(statements, line)
		}
	}

	require.Len(t, statements, 2)
	assert.Equal(t, `click("#login")`, statements[0])
	assert.Equal(t, `fill("input[type=\"email\"][name=\"email\"]", "alice@example.com")`, statements[1])
}

func TestGenerateEmptyList(t *testing.T) {
	out := Generate(nil)
	assert.Equal(t, header+"\n"+footer, out)
}
