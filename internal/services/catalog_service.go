package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/platefeed/api/internal/domain"
	"github.com/platefeed/api/internal/repositories"
)

const foodIDPrefix = "food_"

// VideoUploader stores an item video and returns its public URL.
type VideoUploader interface {
	UploadVideo(ctx context.Context, partnerID string, contentType string, body io.Reader) (string, error)
}

// CatalogServiceDeps bundles collaborators required to construct the catalog
// service. Videos is optional; without it item creation rejects video uploads.
type CatalogServiceDeps struct {
	Foods       repositories.FoodRepository
	Engagements repositories.EngagementRepository
	Videos      VideoUploader
	Clock       func() time.Time
	IDGenerator func() string
}

type catalogService struct {
	foods       repositories.FoodRepository
	engagements repositories.EngagementRepository
	videos      VideoUploader
	sanitizer   *bluemonday.Policy
	clock       func() time.Time
	newID       func() string
}

// NewCatalogService constructs the catalog service over its repositories.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Foods == nil {
		return nil, errors.New("catalog service: food repository is required")
	}
	if deps.Engagements == nil {
		return nil, errors.New("catalog service: engagement repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string {
			return foodIDPrefix + ulid.Make().String()
		}
	}

	return &catalogService{
		foods:       deps.Foods,
		engagements: deps.Engagements,
		videos:      deps.Videos,
		sanitizer:   bluemonday.StrictPolicy(),
		clock:       func() time.Time { return clock().UTC() },
		newID:       newID,
	}, nil
}

func (s *catalogService) ListFoods(ctx context.Context, viewer domain.Principal) ([]domain.EngagedFoodItem, error) {
	items, err := s.foods.List(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, "catalog")
	}
	return s.enrich(ctx, viewer, items)
}

func (s *catalogService) GetFood(ctx context.Context, viewer domain.Principal, foodID string) (domain.EngagedFoodItem, error) {
	foodID = strings.TrimSpace(foodID)
	if foodID == "" {
		return domain.EngagedFoodItem{}, fmt.Errorf("%w: food id is required", domain.ErrInvalidInput)
	}
	item, err := s.foods.FindByID(ctx, foodID)
	if err != nil {
		return domain.EngagedFoodItem{}, mapRepositoryError(err, "food "+foodID)
	}
	enriched, err := s.enrich(ctx, viewer, []domain.FoodItem{item})
	if err != nil {
		return domain.EngagedFoodItem{}, err
	}
	return enriched[0], nil
}

func (s *catalogService) CreateFood(ctx context.Context, cmd CreateFoodCommand) (domain.FoodItem, error) {
	partnerID := strings.TrimSpace(cmd.PartnerID)
	if partnerID == "" {
		return domain.FoodItem{}, fmt.Errorf("%w: partner id is required", domain.ErrForbidden)
	}
	name := strings.TrimSpace(s.sanitizer.Sanitize(cmd.Name))
	if name == "" {
		return domain.FoodItem{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if cmd.PriceCents < 0 {
		return domain.FoodItem{}, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	}

	videoURL := ""
	if cmd.Video != nil {
		if s.videos == nil {
			return domain.FoodItem{}, fmt.Errorf("%w: video uploads are not enabled", domain.ErrInvalidInput)
		}
		url, err := s.videos.UploadVideo(ctx, partnerID, cmd.VideoContentType, cmd.Video)
		if err != nil {
			return domain.FoodItem{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		videoURL = url
	}

	now := s.clock()
	item := domain.FoodItem{
		ID:          s.newID(),
		Name:        name,
		Description: strings.TrimSpace(s.sanitizer.Sanitize(cmd.Description)),
		VideoURL:    videoURL,
		PriceCents:  cmd.PriceCents,
		PartnerID:   partnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.foods.Insert(ctx, item); err != nil {
		return domain.FoodItem{}, mapRepositoryError(err, "food "+item.ID)
	}
	return item, nil
}

// enrich attaches the viewer's like/save flags. Anonymous viewers short-circuit
// with zero engagement reads: every flag is false by definition.
func (s *catalogService) enrich(ctx context.Context, viewer domain.Principal, items []domain.FoodItem) ([]domain.EngagedFoodItem, error) {
	enriched := make([]domain.EngagedFoodItem, 0, len(items))
	if viewer.IsAnonymous() || viewer.Role != domain.RoleUser || len(items) == 0 {
		for _, item := range items {
			enriched = append(enriched, domain.EngagedFoodItem{Item: item})
		}
		return enriched, nil
	}

	liked, err := s.engagements.EngagedFoodIDs(ctx, domain.EngagementLike, viewer.ID)
	if err != nil {
		return nil, mapRepositoryError(err, "likes")
	}
	saved, err := s.engagements.EngagedFoodIDs(ctx, domain.EngagementSave, viewer.ID)
	if err != nil {
		return nil, mapRepositoryError(err, "saves")
	}

	for _, item := range items {
		_, isLiked := liked[item.ID]
		_, isSaved := saved[item.ID]
		enriched = append(enriched, domain.EngagedFoodItem{Item: item, IsLiked: isLiked, IsSaved: isSaved})
	}
	return enriched, nil
}
