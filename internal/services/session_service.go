package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/RushikeshTemkar2003/Expert-Talk/internal/billing"
	"github.com/RushikeshTemkar2003/Expert-Talk/internal/models"
	"github.com/RushikeshTemkar2003/Expert-Talk/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrExpertNotFound    = errors.New("expert not found")
	ErrExpertUnavailable = errors.New("expert not available")
	ErrSessionNotActive  = errors.New("session is not active")
)

// DefaultSessionMinutes is the paid time budget used when a start request
// carries no duration or a non-positive one.
const DefaultSessionMinutes = 60

type sessionStore interface {
	Create(ctx context.Context, input repository.CreateSessionInput) (*models.ChatSession, error)
	GetByID(ctx context.Context, sessionID int64) (*models.ChatSession, error)
	CompleteIfActive(ctx context.Context, sessionID int64, endTime time.Time, actualDurationMinutes int, totalAmount *float64) (*models.ChatSession, error)
	ListByParticipant(ctx context.Context, participantID int64) ([]models.SessionSummary, error)
}

type userStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	AddEarnings(ctx context.Context, userID int64, amount float64) error
}

type settlementRecorder interface {
	Create(ctx context.Context, input repository.CreatePaymentInput) (*models.Payment, error)
}

// SessionService owns the consultation state machine: active sessions are
// opened with a paid time budget, observed live, and completed exactly once,
// either on request or lazily when a read notices the budget is exhausted.
type SessionService struct {
	sessionRepo sessionStore
	paymentRepo settlementRecorder
	userRepo    userStore
	clock       Clock
}

func NewSessionService(
	sessionRepo sessionStore,
	paymentRepo settlementRecorder,
	userRepo userStore,
	clock Clock,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		clock:       clock,
	}
}

type StartSessionInput struct {
	ExpertID        int64
	DurationMinutes int
}

// SessionLiveInfo is the live view of a session. Reading it is not passive:
// a session whose budget has run out is completed as a side effect before the
// view is returned.
type SessionLiveInfo struct {
	Session          models.ChatSession `json:"session"`
	ElapsedMinutes   int                `json:"elapsed_minutes"`
	RemainingMinutes int                `json:"remaining_minutes"`
	RemainingSeconds int                `json:"remaining_seconds"`
	IsExpired        bool               `json:"is_expired"`
}

func (s *SessionService) StartSession(
	ctx context.Context,
	userID int64,
	input StartSessionInput,
) (*models.ChatSession, error) {
	if input.ExpertID <= 0 || input.ExpertID == userID {
		return nil, ErrInvalidInput
	}

	expert, err := s.userRepo.GetByID(ctx, input.ExpertID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExpertNotFound
		}
		return nil, err
	}
	if expert.Role != models.RoleExpert {
		return nil, ErrExpertNotFound
	}
	if !expert.IsLoggedIn || !expert.IsAvailable {
		return nil, ErrExpertUnavailable
	}

	duration := input.DurationMinutes
	if duration <= 0 {
		duration = DefaultSessionMinutes
	}

	return s.sessionRepo.Create(ctx, repository.CreateSessionInput{
		UserID:              userID,
		ExpertID:            input.ExpertID,
		StartTime:           s.clock.Now().UTC(),
		PaidDurationMinutes: duration,
	})
}

func (s *SessionService) GetSessionInfo(
	ctx context.Context,
	actorID int64,
	sessionID int64,
) (*SessionLiveInfo, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(session, actorID) {
		return nil, ErrForbidden
	}

	session, err = s.ExpireIfDue(ctx, session)
	if err != nil {
		return nil, err
	}

	info := &SessionLiveInfo{Session: *session}
	if session.Status != models.SessionStatusActive {
		info.IsExpired = true
		if session.ActualDurationMinutes != nil {
			info.ElapsedMinutes = *session.ActualDurationMinutes
		}
		return info, nil
	}

	elapsed := s.elapsedMinutes(session)
	remaining := session.PaidDurationMinutes - elapsed
	if remaining < 0 {
		remaining = 0
	}
	info.ElapsedMinutes = elapsed
	info.RemainingMinutes = remaining
	info.RemainingSeconds = remaining * 60
	return info, nil
}

// EndSession completes a session on behalf of a participant. Ending an
// already-completed session is a no-op that returns the stored settlement.
func (s *SessionService) EndSession(
	ctx context.Context,
	actorID int64,
	sessionID int64,
) (*models.Settlement, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(session, actorID) {
		return nil, ErrForbidden
	}

	if session.Status == models.SessionStatusActive {
		session, err = s.complete(ctx, session)
		if err != nil {
			return nil, err
		}
	}

	return settlementOf(session), nil
}

func (s *SessionService) ListSessions(
	ctx context.Context,
	actorID int64,
) ([]models.SessionSummary, error) {
	summaries, err := s.sessionRepo.ListByParticipant(ctx, actorID)
	if err != nil {
		return nil, err
	}

	for i := range summaries {
		session, err := s.ExpireIfDue(ctx, &summaries[i].ChatSession)
		if err != nil {
			return nil, err
		}
		summaries[i].ChatSession = *session
	}

	return summaries, nil
}

// ExpireIfDue completes the session when its paid budget has elapsed. Every
// entry point that touches a session runs this first, so lazy expiry and an
// explicit end go through the same compare-and-swap and cannot diverge.
func (s *SessionService) ExpireIfDue(
	ctx context.Context,
	session *models.ChatSession,
) (*models.ChatSession, error) {
	if session.Status != models.SessionStatusActive {
		return session, nil
	}
	if s.elapsedMinutes(session) < session.PaidDurationMinutes {
		return session, nil
	}
	return s.complete(ctx, session)
}

// complete performs the single atomic active -> completed transition. Billing
// is best-effort: a missing hourly rate leaves the total unset and never
// blocks the close. When the compare-and-swap loses to a concurrent close the
// winner's record is adopted as-is.
func (s *SessionService) complete(
	ctx context.Context,
	session *models.ChatSession,
) (*models.ChatSession, error) {
	now := s.clock.Now().UTC()
	actual := int(now.Sub(session.StartTime) / time.Minute)
	if actual < 1 {
		actual = 1
	}

	var total *float64
	expert, err := s.userRepo.GetByID(ctx, session.ExpertID)
	if err == nil && expert.HourlyRate != nil {
		amount := billing.Amount(*expert.HourlyRate, actual)
		total = &amount
	}

	completed, err := s.sessionRepo.CompleteIfActive(ctx, session.ID, now, actual, total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.sessionRepo.GetByID(ctx, session.ID)
		}
		return nil, err
	}

	s.recordSettlement(ctx, completed)
	return completed, nil
}

// recordSettlement credits the expert and writes the settlement payment row.
// Both are bookkeeping around an already-committed close, so failures are
// logged and swallowed rather than surfaced to the caller.
func (s *SessionService) recordSettlement(ctx context.Context, session *models.ChatSession) {
	if session.TotalAmount == nil {
		return
	}

	if err := s.userRepo.AddEarnings(ctx, session.ExpertID, *session.TotalAmount); err != nil {
		log.Printf("session %d: credit expert earnings: %v", session.ID, err)
	}

	sessionID := session.ID
	expertID := session.ExpertID
	if _, err := s.paymentRepo.Create(ctx, repository.CreatePaymentInput{
		SessionID: &sessionID,
		UserID:    session.UserID,
		ExpertID:  &expertID,
		OrderID:   "settle_" + uuid.NewString(),
		Amount:    *session.TotalAmount,
		Status:    models.PaymentStatusSettled,
	}); err != nil {
		log.Printf("session %d: record settlement: %v", session.ID, err)
	}
}

func (s *SessionService) elapsedMinutes(session *models.ChatSession) int {
	return int(s.clock.Now().UTC().Sub(session.StartTime) / time.Minute)
}

func isParticipant(session *models.ChatSession, actorID int64) bool {
	return session.UserID == actorID || session.ExpertID == actorID
}

func settlementOf(session *models.ChatSession) *models.Settlement {
	settlement := &models.Settlement{TotalAmount: session.TotalAmount}
	if session.ActualDurationMinutes != nil {
		settlement.ActualDurationMinutes = *session.ActualDurationMinutes
	}
	return settlement
}
