package repository

import (
	"context"

	"github.com/RushikeshTemkar2003/Expert-Talk/internal/models"
	"github.com/jackc/pgx/v5"
)

type CreatePaymentInput struct {
	SessionID *int64
	UserID    int64
	ExpertID  *int64
	OrderID   string
	Amount    float64
	Status    string
}

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, session_id, user_id, expert_id, order_id, amount, status, created_at`

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var payment models.Payment
	err := row.Scan(
		&payment.ID,
		&payment.SessionID,
		&payment.UserID,
		&payment.ExpertID,
		&payment.OrderID,
		&payment.Amount,
		&payment.Status,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) Create(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	query := `
		INSERT INTO payments (session_id, user_id, expert_id, order_id, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + paymentColumns + `
	`
	return scanPayment(r.db.QueryRow(
		ctx,
		query,
		input.SessionID,
		input.UserID,
		input.ExpertID,
		input.OrderID,
		input.Amount,
		input.Status,
	))
}

func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1`
	return scanPayment(r.db.QueryRow(ctx, query, orderID))
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64) ([]models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		var payment models.Payment
		if err := rows.Scan(
			&payment.ID,
			&payment.SessionID,
			&payment.UserID,
			&payment.ExpertID,
			&payment.OrderID,
			&payment.Amount,
			&payment.Status,
			&payment.CreatedAt,
		); err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *PaymentRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	paymentID int64,
	currentStatus string,
	nextStatus string,
) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING ` + paymentColumns + `
	`
	return scanPayment(r.db.QueryRow(ctx, query, paymentID, currentStatus, nextStatus))
}
