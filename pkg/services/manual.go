package services

import (
	"context"
	"fmt"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
)

// ManualService backs manually started runs. Its trigger fetch is a no-op
// marking the run as started.
type ManualService struct{}

// NewManualFactory creates the factory for the "manual" capability.
func NewManualFactory() Factory { return &manualFactory{} }

type manualFactory struct{}

func (*manualFactory) ID() string { return "manual" }

func (*manualFactory) Create(_ map[string]any) (Service, error) {
	return &ManualService{}, nil
}

func (*ManualService) Initialize(_ context.Context) error { return nil }

func (*ManualService) Fetch(_ context.Context, _ map[string]any) (map[string]any, error) {
	return map[string]any{}, nil
}

func (*ManualService) Execute(_ context.Context, operation string, _ map[string]any, _ *models.ExecutionContext) (any, error) {
	return nil, fmt.Errorf("manual capability has no operation %q", operation)
}
