package services

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrUnknownCapability indicates no factory is registered for a name.
var ErrUnknownCapability = errors.New("capability not registered")

// Registry maps capability names to factories.
type Registry struct {
	mu        sync.RWMutex
	logger    *slog.Logger
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "service_registry"),
		factories: make(map[string]Factory),
	}
}

// Register adds a factory, replacing any previous factory for the name.
func (r *Registry) Register(factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[factory.ID()] = factory
	r.logger.Debug("Registered capability", "capability", factory.ID())
}

// Create resolves a capability name into a service instance.
func (r *Registry) Create(name string, config map[string]any) (Service, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, NewCapabilityError(name, ErrUnknownCapability)
	}

	service, err := factory.Create(config)
	if err != nil {
		return nil, NewCapabilityError(name, err)
	}

	return service, nil
}

// Default returns a registry with the built-in providers registered.
func Default(logger *slog.Logger) *Registry {
	registry := NewRegistry(logger)
	registry.Register(NewManualFactory())
	registry.Register(NewLogFactory(logger))
	registry.Register(NewHTTPFactory())
	registry.Register(NewTerminalFactory())
	registry.Register(NewTransformFactory())

	return registry
}
