package models

import "time"

const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

type ChatSession struct {
	ID                    int64      `json:"id"`
	UserID                int64      `json:"user_id"`
	ExpertID              int64      `json:"expert_id"`
	StartTime             time.Time  `json:"start_time"`
	EndTime               *time.Time `json:"end_time"`
	PaidDurationMinutes   int        `json:"paid_duration_minutes"`
	Status                string     `json:"status"`
	ActualDurationMinutes *int       `json:"actual_duration_minutes"`
	TotalAmount           *float64   `json:"total_amount"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// SessionSummary is the list view of a session with the inbox-style extras.
type SessionSummary struct {
	ChatSession
	UserName    string  `json:"user_name"`
	ExpertName  string  `json:"expert_name"`
	LastMessage *string `json:"last_message,omitempty"`
	UnreadCount int     `json:"unread_count"`
}

// Settlement is what a close returns: the billed amount (nil when the expert
// had no hourly rate at close time) and the wall-clock minutes actually used.
type Settlement struct {
	TotalAmount           *float64 `json:"total_amount"`
	ActualDurationMinutes int      `json:"actual_duration_minutes"`
}
