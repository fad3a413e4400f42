package services

import (
	"context"
	"fmt"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/template"
)

// TransformService renders a template expression against the run state
// and returns the rendered value as the node result.
type TransformService struct{}

// NewTransformFactory creates the factory for the "transform" capability.
func NewTransformFactory() Factory { return &transformFactory{} }

type transformFactory struct{}

func (*transformFactory) ID() string { return "transform" }

func (*transformFactory) Create(_ map[string]any) (Service, error) {
	return &TransformService{}, nil
}

func (*TransformService) Initialize(_ context.Context) error { return nil }

func (*TransformService) Fetch(_ context.Context, _ map[string]any) (map[string]any, error) {
	return map[string]any{}, nil
}

func (*TransformService) Execute(_ context.Context, operation string, params map[string]any, ectx *models.ExecutionContext) (any, error) {
	if operation != "render" && operation != "" {
		return nil, fmt.Errorf("transform capability has no operation %q", operation)
	}

	expression, _ := params["expression"].(string)
	if expression == "" {
		return nil, fmt.Errorf("transform render requires an expression")
	}

	return template.RenderWithContext(expression, ectx)
}
