// Package template renders node configuration values against the state of
// a workflow run, so later nodes can reference variables and earlier
// results.
package template

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
)

// RenderWithContext renders one template string against a run's variables
// and results.
func RenderWithContext(input string, ectx *models.ExecutionContext) (any, error) {
	data := map[string]any{
		"variables": ectx.Variables,
		"vars":      ectx.Variables,
		"results":   ectx.Results,
		"execution": map[string]any{
			"id":          ectx.ID,
			"workflow_id": ectx.WorkflowID,
		},
	}

	return Render(input, data)
}

// Render parses and executes a text/template. Output that looks like a
// JSON document or array is decoded so templated config can produce
// structured parameters.
func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("config").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", templateStr, err)
	}

	var buf strings.Builder

	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %q: %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any
		if err := json.Unmarshal([]byte(result), &jsonResult); err == nil {
			return jsonResult, nil
		}
	}

	return result, nil
}

// RenderConfig renders every string value of a node config, leaving other
// scalar types untouched.
func RenderConfig(config map[string]any, ectx *models.ExecutionContext) (map[string]any, error) {
	rendered := make(map[string]any, len(config))

	for key, value := range config {
		str, ok := value.(string)
		if !ok || !strings.Contains(str, "{{") {
			rendered[key] = value

			continue
		}

		out, err := RenderWithContext(str, ectx)
		if err != nil {
			return nil, fmt.Errorf("config key %q: %w", key, err)
		}

		rendered[key] = out
	}

	return rendered, nil
}
