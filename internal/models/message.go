package models

import "time"

type Message struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	SenderID  int64     `json:"sender_id"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	SentAt    time.Time `json:"sent_at"`
}
