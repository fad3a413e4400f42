// Package selector synthesizes best-effort CSS locators from element
// descriptions captured at recording time.
package selector

import (
	"fmt"
	"strings"
)

// ElementInfo describes one page element at capture time. All fields are
// optional; Tag falls back to "div" when absent.
type ElementInfo struct {
	ID          string
	Classes     []string
	Tag         string
	Type        string
	Name        string
	Placeholder string
}

// Synthesize produces a single selector string for the element, preferring
// specificity in a fixed order: element id, first non-empty class token,
// then tag plus attribute-equality clauses for type, name and placeholder.
// No uniqueness check is made against the live page; the selector is a
// fingerprint, not a guarantee. Never fails: absent inputs fall back to the
// bare tag name.
func Synthesize(el ElementInfo) string {
	if id := strings.TrimSpace(el.ID); id != "" {
		return "#" + id
	}

	for _, class := range el.Classes {
		if token := strings.TrimSpace(class); token != "" {
			return "." + token
		}
	}

	tag := strings.ToLower(strings.TrimSpace(el.Tag))
	if tag == "" {
		tag = "div"
	}

	var b strings.Builder

	b.WriteString(tag)

	for _, attr := range []struct {
		name  string
		value string
	}{
		{"type", el.Type},
		{"name", el.Name},
		{"placeholder", el.Placeholder},
	} {
		if attr.value != "" {
			fmt.Fprintf(&b, "[%s=%q]", attr.name, attr.value)
		}
	}

	return b.String()
}

// Describe builds an ElementInfo from a raw attribute map as delivered by
// the capture surface. The class attribute is split on whitespace.
func Describe(tag string, attrs map[string]string) ElementInfo {
	return ElementInfo{
		ID:          attrs["id"],
		Classes:     strings.Fields(attrs["class"]),
		Tag:         tag,
		Type:        attrs["type"],
		Name:        attrs["name"],
		Placeholder: attrs["placeholder"],
	}
}
