package models

import "time"

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusSettled = "settled"
)

// Payment tracks amounts owed only; no money moves through this service.
// Order rows are created before a session exists, settlement rows at close.
type Payment struct {
	ID        int64     `json:"id"`
	SessionID *int64    `json:"session_id"`
	UserID    int64     `json:"user_id"`
	ExpertID  *int64    `json:"expert_id"`
	OrderID   string    `json:"order_id"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
