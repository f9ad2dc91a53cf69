package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/platefeed/api/internal/domain"
	"github.com/platefeed/api/internal/repositories"
)

// EngagementServiceDeps bundles collaborators required to construct the
// engagement service.
type EngagementServiceDeps struct {
	Engagements repositories.EngagementRepository
	Clock       func() time.Time
}

type engagementService struct {
	engagements repositories.EngagementRepository
	clock       func() time.Time
}

// NewEngagementService constructs the engagement service over its repository.
func NewEngagementService(deps EngagementServiceDeps) (EngagementService, error) {
	if deps.Engagements == nil {
		return nil, errors.New("engagement service: engagement repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &engagementService{
		engagements: deps.Engagements,
		clock:       func() time.Time { return clock().UTC() },
	}, nil
}

func (s *engagementService) ToggleLike(ctx context.Context, viewer domain.Principal, foodID string) (domain.EngagementState, error) {
	return s.toggle(ctx, domain.EngagementLike, viewer, foodID)
}

func (s *engagementService) ToggleSave(ctx context.Context, viewer domain.Principal, foodID string) (domain.EngagementState, error) {
	return s.toggle(ctx, domain.EngagementSave, viewer, foodID)
}

func (s *engagementService) toggle(ctx context.Context, kind domain.EngagementKind, viewer domain.Principal, foodID string) (domain.EngagementState, error) {
	if viewer.IsAnonymous() || viewer.Role != domain.RoleUser {
		return domain.EngagementState{}, fmt.Errorf("%w: user account required", domain.ErrForbidden)
	}
	foodID = strings.TrimSpace(foodID)
	if foodID == "" {
		return domain.EngagementState{}, fmt.Errorf("%w: food id is required", domain.ErrInvalidInput)
	}

	state, err := s.engagements.Toggle(ctx, kind, viewer.ID, foodID, s.clock())
	if err != nil {
		return domain.EngagementState{}, mapRepositoryError(err, "food "+foodID)
	}
	return state, nil
}

func (s *engagementService) ListSaved(ctx context.Context, viewer domain.Principal) ([]domain.SavedFoodItem, error) {
	if viewer.IsAnonymous() || viewer.Role != domain.RoleUser {
		return nil, fmt.Errorf("%w: user account required", domain.ErrForbidden)
	}
	saved, err := s.engagements.ListSaved(ctx, viewer.ID)
	if err != nil {
		return nil, mapRepositoryError(err, "saved items")
	}
	return saved, nil
}
