package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/RushikeshTemkar2003/Expert-Talk/internal/models"
	"github.com/RushikeshTemkar2003/Expert-Talk/internal/repository"
	"github.com/gofiber/fiber/v2"
)

type presenceApplicationService interface {
	SetAvailability(ctx context.Context, actorID int64, available bool) error
	ListExperts(ctx context.Context, categoryID *int64) ([]models.ExpertSummary, error)
	ExpertEarnings(ctx context.Context, actorID int64) (float64, error)
}

type ExpertHandler struct {
	presence     presenceApplicationService
	categoryRepo *repository.CategoryRepository
}

func NewExpertHandler(
	presence presenceApplicationService,
	categoryRepo *repository.CategoryRepository,
) *ExpertHandler {
	return &ExpertHandler{
		presence:     presence,
		categoryRepo: categoryRepo,
	}
}

type setAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available"`
}

func (h *ExpertHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.categoryRepo.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to list categories"})
	}

	return c.JSON(fiber.Map{"categories": categories})
}

func (h *ExpertHandler) ListExperts(c *fiber.Ctx) error {
	var categoryID *int64
	if raw := strings.TrimSpace(c.Query("category_id")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid category id"})
		}
		categoryID = &parsed
	}

	experts, err := h.presence.ListExperts(c.Context(), categoryID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"experts": experts})
}

func (h *ExpertHandler) SetAvailability(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleExpert {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req setAvailabilityRequest
	if err := c.BodyParser(&req); err != nil || req.IsAvailable == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "is_available is required"})
	}

	if err := h.presence.SetAvailability(c.Context(), actorID, *req.IsAvailable); err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"is_available": *req.IsAvailable})
}

func (h *ExpertHandler) Earnings(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	earnings, err := h.presence.ExpertEarnings(c.Context(), actorID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"total_earnings": earnings})
}
