package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynthesize(t *testing.T) {
	tests := []struct {
		name     string
		element  ElementInfo
		expected string
	}{
		{
			name:     "id wins over classes",
			element:  ElementInfo{ID: "save-btn", Classes: []string{"btn", "primary"}, Tag: "button"},
			expected: "#save-btn",
		},
		{
			name:     "first class token",
			element:  ElementInfo{Classes: []string{"btn", "primary"}, Tag: "button"},
			expected: ".btn",
		},
		{
			name:     "tag with type and name attributes",
			element:  ElementInfo{Tag: "input", Type: "text", Name: "email"},
			expected: `input[type="text"][name="email"]`,
		},
		{
			name:     "placeholder appended last",
			element:  ElementInfo{Tag: "input", Type: "text", Name: "q", Placeholder: "Search"},
			expected: `input[type="text"][name="q"][placeholder="Search"]`,
		},
		{
			name:     "bare tag fallback",
			element:  ElementInfo{Tag: "textarea"},
			expected: "textarea",
		},
		{
			name:     "empty element falls back to div",
			element:  ElementInfo{},
			expected: "div",
		},
		{
			name:     "whitespace id is ignored",
			element:  ElementInfo{ID: "  ", Classes: []string{"", "  ", "card"}, Tag: "section"},
			expected: ".card",
		},
		{
			name:     "tag is lowercased",
			element:  ElementInfo{Tag: "INPUT", Type: "password"},
			expected: `input[type="password"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Synthesize(tt.element))
		})
	}
}

func TestDescribe(t *testing.T) {
	el := Describe("input", map[string]string{
		"id":          "login",
		"class":       "form-control wide",
		"type":        "email",
		"name":        "email",
		"placeholder": "you@example.com",
	})

	assert.Equal(t, "login", el.ID)
	assert.Equal(t, []string{"form-control", "wide"}, el.Classes)
	assert.Equal(t, "input", el.Tag)
	assert.Equal(t, "email", el.Type)
	assert.Equal(t, "you@example.com", el.Placeholder)
}

func TestDescribeThenSynthesize(t *testing.T) {
	el := Describe("input", map[string]string{"type": "text", "name": "email"})
	assert.Equal(t, `input[type="text"][name="email"]`, Synthesize(el))
}
