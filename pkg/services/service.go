// Package services defines the capability-provider boundary the workflow
// executor dispatches against. Providers are invoked by name with an
// operation string and a parameter mapping; concrete integrations (mail,
// storage, source control) register their own factories.
package services

import (
	"context"
	"fmt"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
)

// Service is one capability provider.
type Service interface {
	// Initialize prepares the provider before a run starts. A failure here
	// is fatal for the whole run.
	Initialize(ctx context.Context) error

	// Fetch seeds initial trigger data into a run.
	Fetch(ctx context.Context, config map[string]any) (map[string]any, error)

	// Execute dispatches a named operation with rendered parameters.
	Execute(ctx context.Context, operation string, params map[string]any, ectx *models.ExecutionContext) (any, error)
}

// Factory creates service instances by capability name.
type Factory interface {
	ID() string
	Create(config map[string]any) (Service, error)
}

// CapabilityError indicates a capability could not be resolved or
// initialized. It aborts the run before any node executes.
type CapabilityError struct {
	Capability string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %q unavailable: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// NewCapabilityError wraps a capability failure.
func NewCapabilityError(capability string, err error) *CapabilityError {
	return &CapabilityError{Capability: capability, Err: err}
}
