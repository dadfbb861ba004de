package handlers

import (
	"errors"

	"github.com/RushikeshTemkar2003/Expert-Talk/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// mapServiceError translates the services' sentinel errors into HTTP
// responses. Anything unrecognized is a store or infrastructure failure and
// surfaces as a 500 without detail.
func mapServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrExpertNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Expert not found"})
	case errors.Is(err, services.ErrExpertUnavailable):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Expert is not available"})
	case errors.Is(err, services.ErrSessionNotActive):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Session is not active"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process request"})
	}
}
