package handlers

import (
	"errors"
	"strings"

	"github.com/RushikeshTemkar2003/Expert-Talk/internal/models"
	"github.com/RushikeshTemkar2003/Expert-Talk/internal/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PaymentHandler records amounts owed; no gateway is attached and no money
// moves through this service.
type PaymentHandler struct {
	paymentRepo *repository.PaymentRepository
}

func NewPaymentHandler(paymentRepo *repository.PaymentRepository) *PaymentHandler {
	return &PaymentHandler{paymentRepo: paymentRepo}
}

type createOrderRequest struct {
	Amount float64 `json:"amount"`
}

func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Amount must be greater than 0"})
	}

	payment, err := h.paymentRepo.Create(c.Context(), repository.CreatePaymentInput{
		UserID:  userID,
		OrderID: "order_" + uuid.NewString(),
		Amount:  req.Amount,
		Status:  models.PaymentStatusPending,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to create order"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"payment": payment})
}

// ConfirmOrder flips a pending order to paid. A repeated confirm of an
// already-paid order succeeds and returns the stored payment.
func (h *PaymentHandler) ConfirmOrder(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	orderID := strings.TrimSpace(c.Params("order_id"))
	if orderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order id"})
	}

	payment, err := h.paymentRepo.GetByOrderID(c.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to lookup order"})
	}
	if payment.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	if payment.Status == models.PaymentStatusPaid {
		return c.JSON(fiber.Map{"payment": payment})
	}

	updated, err := h.paymentRepo.UpdateStatusIfCurrent(
		c.Context(),
		payment.ID,
		models.PaymentStatusPending,
		models.PaymentStatusPaid,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusUnprocessableEntity).
				JSON(fiber.Map{"error": "Order is not pending"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to confirm order"})
	}

	return c.JSON(fiber.Map{"payment": updated})
}

func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	payments, err := h.paymentRepo.ListByUser(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to list payments"})
	}

	return c.JSON(fiber.Map{"payments": payments})
}
