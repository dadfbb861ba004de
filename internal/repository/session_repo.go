package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/RushikeshTemkar2003/Expert-Talk/internal/models"
	"github.com/jackc/pgx/v5"
)

type CreateSessionInput struct {
	UserID              int64
	ExpertID            int64
	StartTime           time.Time
	PaidDurationMinutes int
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, expert_id, start_time, end_time, paid_duration_min, status,
	actual_duration_min, total_amount, created_at, updated_at`

func scanSession(row pgx.Row) (*models.ChatSession, error) {
	var session models.ChatSession
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.ExpertID,
		&session.StartTime,
		&session.EndTime,
		&session.PaidDurationMinutes,
		&session.Status,
		&session.ActualDurationMinutes,
		&session.TotalAmount,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Create(
	ctx context.Context,
	input CreateSessionInput,
) (*models.ChatSession, error) {
	query := `
		INSERT INTO chat_sessions (user_id, expert_id, start_time, paid_duration_min, status)
		VALUES ($1, $2, $3, $4, 'active')
		RETURNING ` + sessionColumns + `
	`
	return scanSession(r.db.QueryRow(
		ctx,
		query,
		input.UserID,
		input.ExpertID,
		input.StartTime,
		input.PaidDurationMinutes,
	))
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.ChatSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM chat_sessions WHERE id = $1`
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

// CompleteIfActive is the single atomic transition out of the active state.
// It returns pgx.ErrNoRows when the session is unknown or some other caller
// already completed it; the caller re-reads and adopts the winner's record.
func (r *SessionRepository) CompleteIfActive(
	ctx context.Context,
	sessionID int64,
	endTime time.Time,
	actualDurationMinutes int,
	totalAmount *float64,
) (*models.ChatSession, error) {
	query := `
		UPDATE chat_sessions
		SET status = 'completed',
		    end_time = $2,
		    actual_duration_min = $3,
		    total_amount = $4,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING ` + sessionColumns + `
	`
	return scanSession(r.db.QueryRow(ctx, query, sessionID, endTime, actualDurationMinutes, totalAmount))
}

// ListByParticipant returns every session the participant is on either side
// of, newest first, with the inbox extras (names, last message, unread count).
func (r *SessionRepository) ListByParticipant(
	ctx context.Context,
	participantID int64,
) ([]models.SessionSummary, error) {
	query := `
		SELECT
			s.id,
			s.user_id,
			s.expert_id,
			s.start_time,
			s.end_time,
			s.paid_duration_min,
			s.status,
			s.actual_duration_min,
			s.total_amount,
			s.created_at,
			s.updated_at,
			u.name,
			e.name,
			lm.content,
			COALESCE(uc.unread_count, 0)
		FROM chat_sessions s
		JOIN users u ON u.id = s.user_id
		JOIN users e ON e.id = s.expert_id
		LEFT JOIN LATERAL (
			SELECT content
			FROM messages
			WHERE session_id = s.id
			ORDER BY sent_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread_count
			FROM messages
			WHERE session_id = s.id
			  AND sender_id <> $1
			  AND is_read = FALSE
		) uc ON TRUE
		WHERE s.user_id = $1 OR s.expert_id = $1
		ORDER BY s.start_time DESC, s.id DESC
	`

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.SessionSummary, 0)
	for rows.Next() {
		var summary models.SessionSummary
		var lastMessage sql.NullString

		if err := rows.Scan(
			&summary.ID,
			&summary.UserID,
			&summary.ExpertID,
			&summary.StartTime,
			&summary.EndTime,
			&summary.PaidDurationMinutes,
			&summary.Status,
			&summary.ActualDurationMinutes,
			&summary.TotalAmount,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&summary.UserName,
			&summary.ExpertName,
			&lastMessage,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}

		if lastMessage.Valid {
			content := lastMessage.String
			summary.LastMessage = &content
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}
