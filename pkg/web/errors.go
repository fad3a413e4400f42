package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/services"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/workflow"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleRunError maps executor failures onto problem responses.
func handleRunError(c fiber.Ctx, err error) error {
	var validationErr *workflow.ValidationError
	if errors.As(err, &validationErr) {
		return badRequest(c, err.Error())
	}

	var capabilityErr *services.CapabilityError
	if errors.As(err, &capabilityErr) {
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("capability_unavailable").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)
	}

	return internalError(c, err)
}
