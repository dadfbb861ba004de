package services

import (
	"context"
	"errors"

	"github.com/RushikeshTemkar2003/Expert-Talk/internal/models"
	"github.com/jackc/pgx/v5"
)

type presenceStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	SetAvailability(ctx context.Context, userID int64, available bool) error
	SetLoggedIn(ctx context.Context, userID int64, loggedIn bool) error
	ListExperts(ctx context.Context, categoryID *int64) ([]models.ExpertSummary, error)
}

// PresenceService keeps the expert online/available flags that routing reads.
// It is a flag store only; consultation requests are never queued here.
type PresenceService struct {
	userRepo presenceStore
}

func NewPresenceService(userRepo presenceStore) *PresenceService {
	return &PresenceService{userRepo: userRepo}
}

func (s *PresenceService) SetAvailability(ctx context.Context, actorID int64, available bool) error {
	user, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if user.Role != models.RoleExpert {
		return ErrForbidden
	}
	return s.userRepo.SetAvailability(ctx, actorID, available)
}

// MarkOnline and MarkOffline track login state; both are tolerant of an
// unknown id so a stale token cannot fail a logout.
func (s *PresenceService) MarkOnline(ctx context.Context, userID int64) error {
	return s.userRepo.SetLoggedIn(ctx, userID, true)
}

func (s *PresenceService) MarkOffline(ctx context.Context, userID int64) error {
	return s.userRepo.SetLoggedIn(ctx, userID, false)
}

func (s *PresenceService) ListExperts(ctx context.Context, categoryID *int64) ([]models.ExpertSummary, error) {
	return s.userRepo.ListExperts(ctx, categoryID)
}

func (s *PresenceService) ExpertEarnings(ctx context.Context, actorID int64) (float64, error) {
	user, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrForbidden
		}
		return 0, err
	}
	if user.Role != models.RoleExpert {
		return 0, ErrForbidden
	}
	return user.TotalEarnings, nil
}
