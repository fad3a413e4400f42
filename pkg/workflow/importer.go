package workflow

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
)

// workflowSchema rejects malformed documents before decoding. Nodes
// default to enabled when the flag is omitted.
const workflowSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "name", "nodes"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 3},
    "description": {"type": "string"},
    "variables": {"type": "object"},
    "metadata": {"type": "object"},
    "nodes": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "type"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {"enum": ["trigger", "action", "condition", "delay"]},
          "name": {"type": "string"},
          "service": {"type": "string"},
          "operation": {"type": "string"},
          "config": {
            "type": "object",
            "additionalProperties": {
              "type": ["string", "number", "boolean"]
            }
          },
          "outgoing": {
            "type": "array",
            "items": {"type": "string"}
          },
          "enabled": {"type": "boolean"}
        }
      }
    }
  }
}`

type importedNode struct {
	ID        string          `json:"id"`
	Type      models.NodeType `json:"type"`
	Name      string          `json:"name"`
	Service   string          `json:"service"`
	Operation string          `json:"operation"`
	Config    map[string]any  `json:"config"`
	Outgoing  []string        `json:"outgoing"`
	Enabled   *bool           `json:"enabled"`
}

type importedWorkflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Nodes       []*importedNode `json:"nodes"`
	Variables   map[string]any  `json:"variables"`
	Metadata    map[string]any  `json:"metadata"`
}

// Importer decodes workflow definition documents into validated graphs.
type Importer struct {
	schema   *gojsonschema.Schema
	validate *validator.Validate
}

// NewImporter compiles the embedded document schema.
func NewImporter() (*Importer, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(workflowSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile workflow schema: %w", err)
	}

	return &Importer{
		schema:   schema,
		validate: validator.New(),
	}, nil
}

// Import decodes a JSON workflow definition and validates it structurally.
// Graphs that decode but violate an invariant (no trigger, dangling edge,
// non-scalar config) are rejected with a ValidationError.
func (i *Importer) Import(data []byte) (*models.Workflow, error) {
	result, err := i.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse workflow document: %w", err)
	}

	if !result.Valid() {
		return nil, fmt.Errorf("workflow document invalid: %s", formatSchemaErrors(result))
	}

	var doc importedWorkflow
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode workflow document: %w", err)
	}

	wf := &models.Workflow{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Variables:   doc.Variables,
		Metadata:    doc.Metadata,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	for _, raw := range doc.Nodes {
		enabled := true
		if raw.Enabled != nil {
			enabled = *raw.Enabled
		}

		wf.Nodes = append(wf.Nodes, &models.WorkflowNode{
			ID:        raw.ID,
			Type:      raw.Type,
			Name:      raw.Name,
			Service:   raw.Service,
			Operation: raw.Operation,
			Config:    raw.Config,
			Outgoing:  raw.Outgoing,
			Enabled:   enabled,
		})
	}

	if err := i.validate.Struct(wf); err != nil {
		return nil, &ValidationError{WorkflowID: wf.ID, Err: err}
	}

	if err := wf.Validate(); err != nil {
		return nil, &ValidationError{WorkflowID: wf.ID, Err: err}
	}

	wf.SyncConnections()

	return wf, nil
}

func formatSchemaErrors(result *gojsonschema.Result) string {
	parts := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		parts = append(parts, desc.String())
	}

	return strings.Join(parts, "; ")
}
