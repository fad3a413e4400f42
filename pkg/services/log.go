package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
)

// LogService writes messages into the process log and echoes them back as
// the node result.
type LogService struct {
	logger *slog.Logger
}

// NewLogFactory creates the factory for the "log" capability.
func NewLogFactory(logger *slog.Logger) Factory {
	return &logFactory{logger: logger.With("module", "log_service")}
}

type logFactory struct {
	logger *slog.Logger
}

func (*logFactory) ID() string { return "log" }

func (f *logFactory) Create(_ map[string]any) (Service, error) {
	return &LogService{logger: f.logger}, nil
}

func (*LogService) Initialize(_ context.Context) error { return nil }

func (*LogService) Fetch(_ context.Context, _ map[string]any) (map[string]any, error) {
	return map[string]any{}, nil
}

func (s *LogService) Execute(_ context.Context, operation string, params map[string]any, ectx *models.ExecutionContext) (any, error) {
	message, _ := params["message"].(string)
	level, _ := params["level"].(string)

	switch operation {
	case "", "write":
	default:
		return nil, fmt.Errorf("log capability has no operation %q", operation)
	}

	logger := s.logger.With("execution_id", ectx.ID)

	switch level {
	case "debug":
		logger.Debug(message)
	case "warn":
		logger.Warn(message)
	case "error":
		logger.Error(message)
	default:
		level = "info"

		logger.Info(message)
	}

	return map[string]any{"message": message, "level": level}, nil
}
