// Package web exposes the HTTP surface: webhook ingestion, inline workflow
// runs and execution history.
package web

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/scheduler"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/workflow"
)

// APIHandlers serves the HTTP endpoints.
type APIHandlers struct {
	scheduler *scheduler.Scheduler
	executor  *workflow.Executor
	importer  *workflow.Importer
	logger    *slog.Logger
}

// NewAPIHandlers wires the handlers.
func NewAPIHandlers(
	sched *scheduler.Scheduler,
	executor *workflow.Executor,
	importer *workflow.Importer,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		scheduler: sched,
		executor:  executor,
		importer:  importer,
		logger:    logger.With("module", "web"),
	}
}

// Register mounts all routes on the app.
func (h *APIHandlers) Register(app *fiber.App) {
	app.Get("/health", h.HealthCheck)
	app.Post("/webhooks/:source", h.ReceiveWebhook)
	app.Post("/workflows/run", h.RunWorkflow)
	app.Get("/executions", h.ListExecutions)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// ReceiveWebhook feeds an inbound payload to every matching webhook
// schedule. A payload matching nothing is still accepted.
func (h *APIHandlers) ReceiveWebhook(c fiber.Ctx) error {
	source := c.Params("source")
	if source == "" {
		return badRequest(c, "Webhook source is required")
	}

	payload := map[string]any{}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&payload); err != nil {
			return badRequest(c, "Invalid JSON payload")
		}
	}

	ids := h.scheduler.HandleEvent(c.Context(), source, payload)

	h.logger.Info("Webhook received", "source", source, "fired", len(ids))

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"source":     source,
		"executions": ids,
	})
}

// RunWorkflow executes an inline workflow document and returns the run's
// context. A run that fails mid-graph still returns partial results
// alongside the error.
func (h *APIHandlers) RunWorkflow(c fiber.Ctx) error {
	wf, err := h.importer.Import(c.Body())
	if err != nil {
		var validationErr *workflow.ValidationError
		if errors.As(err, &validationErr) {
			return badRequest(c, err.Error())
		}

		return badRequest(c, "Invalid workflow document: "+err.Error())
	}

	ectx, err := h.executor.Execute(c.Context(), wf, nil)
	if err != nil {
		if ectx == nil {
			return handleRunError(c, err)
		}

		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"execution": ectx,
			"error":     err.Error(),
		})
	}

	return c.JSON(fiber.Map{"execution": ectx})
}

func (h *APIHandlers) ListExecutions(c fiber.Ctx) error {
	history, err := h.scheduler.History(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions": history,
		"count":      len(history),
	})
}
