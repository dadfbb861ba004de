package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/RushikeshTemkar2003/Expert-Talk/internal/models"
	"github.com/RushikeshTemkar2003/Expert-Talk/internal/repository"
	"github.com/jackc/pgx/v5"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

type stubSessionStore struct {
	sessions      map[int64]*models.ChatSession
	nextID        int64
	createErr     error
	completeErr   error
	listResult    []models.SessionSummary
	listErr       error
	lastCreate    repository.CreateSessionInput
	completeCalls int
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: map[int64]*models.ChatSession{}, nextID: 1}
}

func (s *stubSessionStore) put(session *models.ChatSession) *models.ChatSession {
	s.sessions[session.ID] = session
	return session
}

func (s *stubSessionStore) Create(_ context.Context, input repository.CreateSessionInput) (*models.ChatSession, error) {
	s.lastCreate = input
	if s.createErr != nil {
		return nil, s.createErr
	}
	session := &models.ChatSession{
		ID:                  s.nextID,
		UserID:              input.UserID,
		ExpertID:            input.ExpertID,
		StartTime:           input.StartTime,
		PaidDurationMinutes: input.PaidDurationMinutes,
		Status:              models.SessionStatusActive,
	}
	s.nextID++
	return s.put(session), nil
}

func (s *stubSessionStore) GetByID(_ context.Context, sessionID int64) (*models.ChatSession, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *session
	return &copied, nil
}

func (s *stubSessionStore) CompleteIfActive(_ context.Context, sessionID int64, endTime time.Time, actualDurationMinutes int, totalAmount *float64) (*models.ChatSession, error) {
	s.completeCalls++
	if s.completeErr != nil {
		return nil, s.completeErr
	}
	session, ok := s.sessions[sessionID]
	if !ok || session.Status != models.SessionStatusActive {
		return nil, pgx.ErrNoRows
	}
	session.Status = models.SessionStatusCompleted
	session.EndTime = &endTime
	session.ActualDurationMinutes = &actualDurationMinutes
	session.TotalAmount = totalAmount
	copied := *session
	return &copied, nil
}

func (s *stubSessionStore) ListByParticipant(_ context.Context, _ int64) ([]models.SessionSummary, error) {
	return s.listResult, s.listErr
}

type stubSessionUserRepo struct {
	users    map[int64]*models.User
	earnings map[int64]float64
	earnErr  error
}

func newStubSessionUserRepo(users ...*models.User) *stubSessionUserRepo {
	repo := &stubSessionUserRepo{users: map[int64]*models.User{}, earnings: map[int64]float64{}}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *stubSessionUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *stubSessionUserRepo) AddEarnings(_ context.Context, userID int64, amount float64) error {
	if r.earnErr != nil {
		return r.earnErr
	}
	r.earnings[userID] += amount
	return nil
}

type stubSettlementRecorder struct {
	created []repository.CreatePaymentInput
	err     error
}

func (r *stubSettlementRecorder) Create(_ context.Context, input repository.CreatePaymentInput) (*models.Payment, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.created = append(r.created, input)
	return &models.Payment{ID: int64(len(r.created)), OrderID: input.OrderID}, nil
}

func floatPtr(v float64) *float64 { return &v }

func availableExpert(id int64, rate *float64) *models.User {
	return &models.User{
		ID:          id,
		Role:        models.RoleExpert,
		HourlyRate:  rate,
		IsAvailable: true,
		IsLoggedIn:  true,
	}
}

func newSessionServiceForTest(
	sessions *stubSessionStore,
	users *stubSessionUserRepo,
	payments *stubSettlementRecorder,
	clock *fakeClock,
) *SessionService {
	return NewSessionService(sessions, payments, users, clock)
}

func TestStartSessionDefaultsDuration(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sessions := newStubSessionStore()
	users := newStubSessionUserRepo(availableExpert(2, floatPtr(120)))
	svc := newSessionServiceForTest(sessions, users, &stubSettlementRecorder{}, &fakeClock{now: now})

	session, err := svc.StartSession(context.Background(), 1, StartSessionInput{ExpertID: 2})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if session.PaidDurationMinutes != DefaultSessionMinutes {
		t.Fatalf("expected default duration %d, got %d", DefaultSessionMinutes, session.PaidDurationMinutes)
	}
	if !sessions.lastCreate.StartTime.Equal(now) {
		t.Fatalf("expected start time %v, got %v", now, sessions.lastCreate.StartTime)
	}
	if session.Status != models.SessionStatusActive {
		t.Fatalf("expected active session, got %q", session.Status)
	}
}

func TestStartSessionRejections(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		expert   *models.User
		expertID int64
		want     error
	}{
		{
			name:     "unknown expert",
			expertID: 99,
			want:     ErrExpertNotFound,
		},
		{
			name:     "not an expert",
			expert:   &models.User{ID: 2, Role: models.RoleUser, IsAvailable: true, IsLoggedIn: true},
			expertID: 2,
			want:     ErrExpertNotFound,
		},
		{
			name:     "offline expert",
			expert:   &models.User{ID: 2, Role: models.RoleExpert, IsAvailable: true, IsLoggedIn: false},
			expertID: 2,
			want:     ErrExpertUnavailable,
		},
		{
			name:     "unavailable expert",
			expert:   &models.User{ID: 2, Role: models.RoleExpert, IsAvailable: false, IsLoggedIn: true},
			expertID: 2,
			want:     ErrExpertUnavailable,
		},
		{
			name:     "self consultation",
			expert:   availableExpert(1, floatPtr(100)),
			expertID: 1,
			want:     ErrInvalidInput,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := newStubSessionUserRepo()
			if tc.expert != nil {
				users.users[tc.expert.ID] = tc.expert
			}
			svc := newSessionServiceForTest(newStubSessionStore(), users, &stubSettlementRecorder{}, &fakeClock{now: now})

			_, err := svc.StartSession(context.Background(), 1, StartSessionInput{ExpertID: tc.expertID})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestGetSessionInfoFullBudget(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sessions := newStubSessionStore()
	sessions.put(&models.ChatSession{
		ID: 7, UserID: 1, ExpertID: 2,
		StartTime: start, PaidDurationMinutes: 60,
		Status: models.SessionStatusActive,
	})
	users := newStubSessionUserRepo(availableExpert(2, floatPtr(120)))
	svc := newSessionServiceForTest(sessions, users, &stubSettlementRecorder{}, &fakeClock{now: start})

	info, err := svc.GetSessionInfo(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("GetSessionInfo: %v", err)
	}
	if info.IsExpired {
		t.Fatal("expected session not expired")
	}
	if info.ElapsedMinutes != 0 || info.RemainingMinutes != 60 || info.RemainingSeconds != 3600 {
		t.Fatalf("unexpected budget view: elapsed=%d remaining=%d seconds=%d",
			info.ElapsedMinutes, info.RemainingMinutes, info.RemainingSeconds)
	}
}

func TestGetSessionInfoExpiresDueSession(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sessions := newStubSessionStore()
	sessions.put(&models.ChatSession{
		ID: 7, UserID: 1, ExpertID: 2,
		StartTime: start, PaidDurationMinutes: 60,
		Status: models.SessionStatusActive,
	})
	users := newStubSessionUserRepo(availableExpert(2, floatPtr(120)))
	payments := &stubSettlementRecorder{}
	clock := &fakeClock{now: start.Add(61 * time.Minute)}
	svc := newSessionServiceForTest(sessions, users, payments, clock)

	info, err := svc.GetSessionInfo(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("GetSessionInfo: %v", err)
	}
	if !info.IsExpired {
		t.Fatal("expected expired session")
	}
	if info.Session.Status != models.SessionStatusCompleted {
		t.Fatalf("expected completed status, got %q", info.Session.Status)
	}
	if info.ElapsedMinutes != 61 {
		t.Fatalf("expected 61 elapsed minutes, got %d", info.ElapsedMinutes)
	}
	if info.RemainingMinutes != 0 || info.RemainingSeconds != 0 {
		t.Fatalf("expected zero remaining, got %d/%d", info.RemainingMinutes, info.RemainingSeconds)
	}
	if info.Session.TotalAmount == nil || *info.Session.TotalAmount != 122.0 {
		t.Fatalf("expected total 122.00, got %v", info.Session.TotalAmount)
	}
	if users.earnings[2] != 122.0 {
		t.Fatalf("expected expert credited 122.00, got %v", users.earnings[2])
	}
	if len(payments.created) != 1 {
		t.Fatalf("expected one settlement payment, got %d", len(payments.created))
	}
	settled := payments.created[0]
	if settled.Status != models.PaymentStatusSettled || !strings.HasPrefix(settled.OrderID, "settle_") {
		t.Fatalf("unexpected settlement record: %+v", settled)
	}
}

func TestOneMinuteBudgetExpiresAtOneMinute(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sessions := newStubSessionStore()
	sessions.put(&models.ChatSession{
		ID: 7, UserID: 1, ExpertID: 2,
		StartTime: start, PaidDurationMinutes: 1,
		Status: models.SessionStatusActive,
	})
	users := newStubSessionUserRepo(availableExpert(2, floatPtr(45)))
	svc := newSessionServiceForTest(sessions, users, &stubSettlementRecorder{}, &fakeClock{now: start.Add(time.Minute)})

	info, err := svc.GetSessionInfo(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("GetSessionInfo: %v", err)
	}
	if !info.IsExpired {
		t.Fatal("expected expiry at the budget boundary")
	}
	if info.ElapsedMinutes != 1 {
		t.Fatalf("expected 1 billed minute, got %d", info.ElapsedMinutes)
	}
	if info.Session.TotalAmount == nil || *info.Session.TotalAmount != 0.75 {
		t.Fatalf("expected total 0.75 for 1 minute at 45/h, got %v", info.Session.TotalAmount)
	}
}

func TestGetSessionInfoForbidden(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sessions := newStubSessionStore()
	sessions.put(&models.ChatSession{
		ID: 7, UserID: 1, ExpertID: 2,
		StartTime: start, PaidDurationMinutes: 60,
		Status: models.SessionStatusActive,
	})
	svc := newSessionServiceForTest(sessions, newStubSessionUserRepo(), &stubSettlementRecorder{}, &fakeClock{now: start})

	if _, err := svc.GetSessionInfo(context.Background(), 3, 7); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestEndSessionBillsAtLeastOneMinute(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sessions := newStubSessionStore()
	sessions.put(&models.ChatSession{
		ID: 7, UserID: 1, ExpertID: 2,
		StartTime: start, PaidDurationMinutes: 60,
		Status: models.SessionStatusActive,
	})
	users := newStubSessionUserRepo(availableExpert(2, floatPtr(60)))
	svc := newSessionServiceForTest(sessions, users, &stubSettlementRecorder{}, &fakeClock{now: start.Add(20 * time.Second)})

	settlement, err := svc.EndSession(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if settlement.ActualDurationMinutes != 1 {
		t.Fatalf("expected 1 billed minute, got %d", settlement.ActualDurationMinutes)
	}
	if settlement.TotalAmount == nil || *settlement.TotalAmount != 1.0 {
		t.Fatalf("expected total 1.00, got %v", settlement.TotalAmount)
	}
}

func TestEndSessionIdempotent(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sessions := newStubSessionStore()
	sessions.put(&models.ChatSession{
		ID: 7, UserID: 1, ExpertID: 2,
		StartTime: start, PaidDurationMinutes: 60,
		Status: models.SessionStatusActive,
	})
	users := newStubSessionUserRepo(availableExpert(2, floatPtr(120)))
	payments := &stubSettlementRecorder{}
	svc := newSessionServiceForTest(sessions, users, payments, &fakeClock{now: start.Add(30 * time.Minute)})

	first, err := svc.EndSession(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("first EndSession: %v", err)
	}
	second, err := svc.EndSession(context.Background(), 2, 7)
	if err != nil {
		t.Fatalf("second EndSession: %v", err)
	}

	if sessions.completeCalls != 1 {
		t.Fatalf("expected a single close, got %d", sessions.completeCalls)
	}
	if len(payments.created) != 1 {
		t.Fatalf("expected a single settlement, got %d", len(payments.created))
	}
	if first.ActualDurationMinutes != second.ActualDurationMinutes {
		t.Fatalf("settlements diverged: %d vs %d", first.ActualDurationMinutes, second.ActualDurationMinutes)
	}
	if *first.TotalAmount != *second.TotalAmount {
		t.Fatalf("settlements diverged: %v vs %v", *first.TotalAmount, *second.TotalAmount)
	}
}

func TestEndSessionWithoutHourlyRate(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sessions := newStubSessionStore()
	sessions.put(&models.ChatSession{
		ID: 7, UserID: 1, ExpertID: 2,
		StartTime: start, PaidDurationMinutes: 60,
		Status: models.SessionStatusActive,
	})
	users := newStubSessionUserRepo(availableExpert(2, nil))
	payments := &stubSettlementRecorder{}
	svc := newSessionServiceForTest(sessions, users, payments, &fakeClock{now: start.Add(10 * time.Minute)})

	settlement, err := svc.EndSession(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if settlement.TotalAmount != nil {
		t.Fatalf("expected nil total without a rate, got %v", *settlement.TotalAmount)
	}
	if settlement.ActualDurationMinutes != 10 {
		t.Fatalf("expected 10 billed minutes, got %d", settlement.ActualDurationMinutes)
	}
	if len(payments.created) != 0 {
		t.Fatalf("expected no settlement payment without a total, got %d", len(payments.created))
	}
}

func TestEndSessionAdoptsConcurrentClose(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(15 * time.Minute)
	actual := 15
	sessions := newStubSessionStore()
	sessions.put(&models.ChatSession{
		ID: 7, UserID: 1, ExpertID: 2,
		StartTime: start, PaidDurationMinutes: 60,
		Status:                models.SessionStatusActive,
		ActualDurationMinutes: nil,
	})
	users := newStubSessionUserRepo(availableExpert(2, floatPtr(120)))
	payments := &stubSettlementRecorder{}
	svc := newSessionServiceForTest(sessions, users, payments, &fakeClock{now: start.Add(30 * time.Minute)})

	// Another close wins between the read and the compare-and-swap.
	winner := sessions.sessions[7]
	winner.Status = models.SessionStatusCompleted
	winner.EndTime = &end
	winner.ActualDurationMinutes = &actual
	winner.TotalAmount = floatPtr(30)

	stale := &models.ChatSession{
		ID: 7, UserID: 1, ExpertID: 2,
		StartTime: start, PaidDurationMinutes: 60,
		Status: models.SessionStatusActive,
	}
	adopted, err := svc.complete(context.Background(), stale)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if adopted.ActualDurationMinutes == nil || *adopted.ActualDurationMinutes != actual {
		t.Fatalf("expected the winner's duration %d, got %v", actual, adopted.ActualDurationMinutes)
	}
	if adopted.TotalAmount == nil || *adopted.TotalAmount != 30 {
		t.Fatalf("expected the winner's total 30, got %v", adopted.TotalAmount)
	}
	if len(payments.created) != 0 {
		t.Fatalf("loser must not settle, got %d payments", len(payments.created))
	}
}

func TestListSessionsExpiresDueEntries(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sessions := newStubSessionStore()
	due := sessions.put(&models.ChatSession{
		ID: 7, UserID: 1, ExpertID: 2,
		StartTime: start, PaidDurationMinutes: 30,
		Status: models.SessionStatusActive,
	})
	fresh := sessions.put(&models.ChatSession{
		ID: 8, UserID: 1, ExpertID: 2,
		StartTime: start.Add(40 * time.Minute), PaidDurationMinutes: 60,
		Status: models.SessionStatusActive,
	})
	sessions.listResult = []models.SessionSummary{
		{ChatSession: *due, ExpertName: "Dana"},
		{ChatSession: *fresh, ExpertName: "Dana"},
	}
	users := newStubSessionUserRepo(availableExpert(2, floatPtr(120)))
	svc := newSessionServiceForTest(sessions, users, &stubSettlementRecorder{}, &fakeClock{now: start.Add(45 * time.Minute)})

	summaries, err := svc.ListSessions(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if summaries[0].Status != models.SessionStatusCompleted {
		t.Fatalf("expected first session expired, got %q", summaries[0].Status)
	}
	if summaries[1].Status != models.SessionStatusActive {
		t.Fatalf("expected second session still active, got %q", summaries[1].Status)
	}
}
