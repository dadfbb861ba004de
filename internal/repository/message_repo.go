package repository

import (
	"context"

	"github.com/RushikeshTemkar2003/Expert-Talk/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Append(
	ctx context.Context,
	sessionID int64,
	senderID int64,
	content string,
) (*models.Message, error) {
	query := `
		INSERT INTO messages (session_id, sender_id, content, is_read)
		VALUES ($1, $2, $3, FALSE)
		RETURNING id, session_id, sender_id, content, is_read, sent_at
	`

	var message models.Message
	err := r.db.QueryRow(ctx, query, sessionID, senderID, content).Scan(
		&message.ID,
		&message.SessionID,
		&message.SenderID,
		&message.Content,
		&message.IsRead,
		&message.SentAt,
	)
	if err != nil {
		return nil, err
	}

	return &message, nil
}

func (r *MessageRepository) ListBySession(
	ctx context.Context,
	sessionID int64,
) ([]models.Message, error) {
	query := `
		SELECT id, session_id, sender_id, content, is_read, sent_at
		FROM messages
		WHERE session_id = $1
		ORDER BY sent_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(
			&message.ID,
			&message.SessionID,
			&message.SenderID,
			&message.Content,
			&message.IsRead,
			&message.SentAt,
		); err != nil {
			return nil, err
		}

		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

// MarkSessionRead flips every unread message the reader did not send.
func (r *MessageRepository) MarkSessionRead(
	ctx context.Context,
	sessionID int64,
	readerID int64,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE session_id = $1
		  AND sender_id <> $2
		  AND is_read = FALSE
	`, sessionID, readerID)
	return err
}
