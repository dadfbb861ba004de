package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/RushikeshTemkar2003/Expert-Talk/internal/models"
)

type messageStore interface {
	Append(ctx context.Context, sessionID int64, senderID int64, content string) (*models.Message, error)
	ListBySession(ctx context.Context, sessionID int64) ([]models.Message, error)
	MarkSessionRead(ctx context.Context, sessionID int64, readerID int64) error
}

type sessionReader interface {
	GetByID(ctx context.Context, sessionID int64) (*models.ChatSession, error)
}

type sessionExpirer interface {
	ExpireIfDue(ctx context.Context, session *models.ChatSession) (*models.ChatSession, error)
}

// Publisher fans a payload out to the subscribers of a topic. Delivery is
// at-most-once and must never block or fail the caller.
type Publisher interface {
	Publish(topic string, payload any)
}

// SessionTopic is the per-session message channel; SessionEndTopic carries
// only the session-ended control event.
func SessionTopic(sessionID int64) string {
	return fmt.Sprintf("session/%d", sessionID)
}

func SessionEndTopic(sessionID int64) string {
	return fmt.Sprintf("session/%d/end", sessionID)
}

type MessageEvent struct {
	Type      string          `json:"type"`
	SessionID int64           `json:"session_id"`
	Message   *models.Message `json:"message"`
}

type SessionEndedEvent struct {
	Type      string `json:"type"`
	SessionID int64  `json:"session_id"`
	EndedBy   int64  `json:"ended_by"`
	EndedAt   string `json:"ended_at"`
}

// ChatService relays messages for live sessions: it persists them, gates on
// the session being active, and fans them out to subscribers afterwards.
type ChatService struct {
	messageRepo messageStore
	sessionRepo sessionReader
	lifecycle   sessionExpirer
	publisher   Publisher
	clock       Clock
}

func NewChatService(
	messageRepo messageStore,
	sessionRepo sessionReader,
	lifecycle sessionExpirer,
	publisher Publisher,
	clock Clock,
) *ChatService {
	return &ChatService{
		messageRepo: messageRepo,
		sessionRepo: sessionRepo,
		lifecycle:   lifecycle,
		publisher:   publisher,
		clock:       clock,
	}
}

// SendMessage accepts a message for a live session. The liveness check and a
// racing expiry are deliberately not linearizable: a message accepted just
// before the budget runs out may persist even though the session completes
// immediately after. Fan-out happens after the persist and its outcome never
// affects the stored message.
func (s *ChatService) SendMessage(
	ctx context.Context,
	actorID int64,
	sessionID int64,
	content string,
) (*models.Message, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(session, actorID) {
		return nil, ErrForbidden
	}

	session, err = s.lifecycle.ExpireIfDue(ctx, session)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusActive {
		return nil, ErrSessionNotActive
	}

	message, err := s.messageRepo.Append(ctx, sessionID, actorID, trimmed)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(SessionTopic(sessionID), MessageEvent{
		Type:      "message",
		SessionID: sessionID,
		Message:   message,
	})

	return message, nil
}

// ListMessages returns the session transcript in sent order. As a side effect
// every unread message from the other participant is marked read in the
// store; the returned slice still shows the read state as it was before the
// call.
func (s *ChatService) ListMessages(
	ctx context.Context,
	actorID int64,
	sessionID int64,
) ([]models.Message, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(session, actorID) {
		return nil, ErrForbidden
	}

	if _, err := s.lifecycle.ExpireIfDue(ctx, session); err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.messageRepo.MarkSessionRead(ctx, sessionID, actorID); err != nil {
		return nil, err
	}

	return messages, nil
}

// CanAccess reports whether the actor may observe the session at all.
// Used by the websocket layer before subscribing a connection to a
// session's topics.
func (s *ChatService) CanAccess(ctx context.Context, actorID int64, sessionID int64) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if !isParticipant(session, actorID) {
		return ErrForbidden
	}
	return nil
}

// EndSessionBroadcast tells the session's subscribers that it ended and by
// whom. Pure notification; the state change itself happens in EndSession.
func (s *ChatService) EndSessionBroadcast(sessionID int64, endedBy int64) {
	s.publisher.Publish(SessionEndTopic(sessionID), SessionEndedEvent{
		Type:      "session_ended",
		SessionID: sessionID,
		EndedBy:   endedBy,
		EndedAt:   FormatChatTimestamp(s.clock.Now()),
	})
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
