package models

import "time"

const (
	RoleUser   = "user"
	RoleExpert = "expert"
	RoleAdmin  = "admin"
)

type User struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Phone         *string   `json:"phone"`
	Role          string    `json:"role"`
	CategoryID    *int64    `json:"category_id"`
	HourlyRate    *float64  `json:"hourly_rate"`
	Bio           *string   `json:"bio"`
	IsAvailable   bool      `json:"is_available"`
	IsLoggedIn    bool      `json:"is_logged_in"`
	TotalEarnings float64   `json:"total_earnings"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ExpertSummary is the directory view of an expert: profile fields plus the
// effective availability flag (logged in and accepting consultations).
type ExpertSummary struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	CategoryID  *int64   `json:"category_id"`
	HourlyRate  *float64 `json:"hourly_rate"`
	Bio         *string  `json:"bio"`
	IsAvailable bool     `json:"is_available"`
}
