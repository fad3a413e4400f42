package services

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
)

const defaultCommandTimeout = 60 * time.Second

// TerminalService runs shell commands. Commands execute through `sh -c`
// with a hard timeout.
type TerminalService struct {
	timeout time.Duration
}

// NewTerminalFactory creates the factory for the "terminal" capability.
// Config key "timeout" overrides the command timeout in seconds.
func NewTerminalFactory() Factory { return &terminalFactory{} }

type terminalFactory struct{}

func (*terminalFactory) ID() string { return "terminal" }

func (*terminalFactory) Create(config map[string]any) (Service, error) {
	timeout := defaultCommandTimeout
	if v, ok := config["timeout"].(float64); ok && v > 0 {
		timeout = time.Duration(v) * time.Second
	}

	return &TerminalService{timeout: timeout}, nil
}

func (*TerminalService) Initialize(_ context.Context) error { return nil }

func (*TerminalService) Fetch(_ context.Context, _ map[string]any) (map[string]any, error) {
	return map[string]any{}, nil
}

func (s *TerminalService) Execute(ctx context.Context, operation string, params map[string]any, _ *models.ExecutionContext) (any, error) {
	if operation != "run" && operation != "" {
		return nil, fmt.Errorf("terminal capability has no operation %q", operation)
	}

	command, _ := params["command"].(string)
	if command == "" {
		return nil, fmt.Errorf("terminal run requires a command")
	}

	cmdCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(cmdCtx, "sh", "-c", command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	result := map[string]any{
		"stdout":    stdout.String(),
		"stderr":    stderr.String(),
		"exit_code": exitCode,
	}

	if err != nil {
		return result, fmt.Errorf("command failed: %w", err)
	}

	return result, nil
}
