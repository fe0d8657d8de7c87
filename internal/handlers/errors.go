package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/medibook/internal/services"
)

// respondServiceError maps a service-layer error onto an HTTP response.
// Storage faults stay generic on the wire; their detail was already logged
// server-side.
func respondServiceError(c *fiber.Ctx, err error) error {
	se, ok := services.AsServiceError(err)
	if !ok {
		return err
	}

	var status int
	switch se.Kind {
	case services.ErrKindValidation:
		status = fiber.StatusBadRequest
	case services.ErrKindBusinessRule:
		status = fiber.StatusUnprocessableEntity
	case services.ErrKindStockConflict, services.ErrKindReconciliation:
		status = fiber.StatusConflict
	default:
		status = fiber.StatusInternalServerError
	}

	return c.Status(status).JSON(fiber.Map{
		"success":   false,
		"error":     se.Reason,
		"kind":      se.Kind,
		"retryable": se.Retryable(),
	})
}
