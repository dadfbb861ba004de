package handlers

import (
	"context"
	"strconv"

	"github.com/RushikeshTemkar2003/Expert-Talk/internal/models"
	"github.com/RushikeshTemkar2003/Expert-Talk/internal/services"
	"github.com/gofiber/fiber/v2"
)

type sessionApplicationService interface {
	StartSession(ctx context.Context, userID int64, input services.StartSessionInput) (*models.ChatSession, error)
	GetSessionInfo(ctx context.Context, actorID int64, sessionID int64) (*services.SessionLiveInfo, error)
	EndSession(ctx context.Context, actorID int64, sessionID int64) (*models.Settlement, error)
	ListSessions(ctx context.Context, actorID int64) ([]models.SessionSummary, error)
}

type endBroadcaster interface {
	EndSessionBroadcast(sessionID int64, endedBy int64)
}

type SessionHandler struct {
	service     sessionApplicationService
	broadcaster endBroadcaster
}

func NewSessionHandler(service sessionApplicationService, broadcaster endBroadcaster) *SessionHandler {
	return &SessionHandler{service: service, broadcaster: broadcaster}
}

type startSessionRequest struct {
	ExpertID        int64 `json:"expert_id"`
	DurationMinutes int   `json:"duration_minutes"`
}

func (h *SessionHandler) StartSession(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleUser {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req startSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.service.StartSession(c.Context(), userID, services.StartSessionInput{
		ExpertID:        req.ExpertID,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessions, err := h.service.ListSessions(c.Context(), actorID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) GetSessionInfo(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	info, err := h.service.GetSessionInfo(c.Context(), actorID, sessionID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(info)
}

func (h *SessionHandler) EndSession(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	settlement, err := h.service.EndSession(c.Context(), actorID, sessionID)
	if err != nil {
		return mapServiceError(c, err)
	}

	h.broadcaster.EndSessionBroadcast(sessionID, actorID)

	return c.JSON(settlement)
}
