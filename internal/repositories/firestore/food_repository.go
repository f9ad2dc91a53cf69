package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/platefeed/api/internal/domain"
	pfirestore "github.com/platefeed/api/internal/platform/firestore"
	"github.com/platefeed/api/internal/repositories"
)

const foodCollection = "foods"

// FoodRepository persists catalog items in the foods collection.
type FoodRepository struct {
	provider *pfirestore.Provider
}

// NewFoodRepository constructs a Firestore-backed food repository.
func NewFoodRepository(provider *pfirestore.Provider) (*FoodRepository, error) {
	if provider == nil {
		return nil, errors.New("food repository requires firestore provider")
	}
	return &FoodRepository{provider: provider}, nil
}

// Insert creates the catalog document, failing on id collision.
func (r *FoodRepository) Insert(ctx context.Context, item domain.FoodItem) error {
	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(item.ID)
	if id == "" {
		return errors.New("food repository: item id is required")
	}
	if _, err := coll.Doc(id).Create(ctx, encodeFoodDocument(item)); err != nil {
		return pfirestore.WrapError("foods.insert", err)
	}
	return nil
}

// FindByID fetches a single catalog item.
func (r *FoodRepository) FindByID(ctx context.Context, foodID string) (domain.FoodItem, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return domain.FoodItem{}, err
	}
	id := strings.TrimSpace(foodID)
	if id == "" {
		return domain.FoodItem{}, errors.New("food repository: food id is required")
	}
	snap, err := coll.Doc(id).Get(ctx)
	if err != nil {
		return domain.FoodItem{}, pfirestore.WrapError("foods.find", err)
	}
	return decodeFoodDocument(snap)
}

// List returns the catalog newest-first.
func (r *FoodRepository) List(ctx context.Context) ([]domain.FoodItem, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	iter := coll.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var items []domain.FoodItem
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("foods.list", err)
		}
		item, err := decodeFoodDocument(snap)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// ResolveMany fetches the requested ids in one batch. Ids without a backing
// document are left out of the result instead of failing the read.
func (r *FoodRepository) ResolveMany(ctx context.Context, foodIDs []string) (map[string]domain.FoodItem, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	refs := make([]*firestore.DocumentRef, 0, len(foodIDs))
	for _, id := range foodIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			refs = append(refs, coll.Doc(trimmed))
		}
	}
	resolved := make(map[string]domain.FoodItem, len(refs))
	if len(refs) == 0 {
		return resolved, nil
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	snaps, err := client.GetAll(ctx, refs)
	if err != nil {
		return nil, pfirestore.WrapError("foods.resolve", err)
	}
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		item, err := decodeFoodDocument(snap)
		if err != nil {
			return nil, err
		}
		resolved[item.ID] = item
	}
	return resolved, nil
}

func (r *FoodRepository) collection(ctx context.Context) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("food repository not initialised")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(foodCollection), nil
}

type foodDocument struct {
	Name        string    `firestore:"name"`
	Description string    `firestore:"description,omitempty"`
	VideoURL    string    `firestore:"videoUrl,omitempty"`
	PriceCents  int64     `firestore:"priceCents"`
	PartnerID   string    `firestore:"partnerId"`
	LikesCount  int64     `firestore:"likesCount"`
	SavesCount  int64     `firestore:"savesCount"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func encodeFoodDocument(item domain.FoodItem) foodDocument {
	return foodDocument{
		Name:        item.Name,
		Description: item.Description,
		VideoURL:    item.VideoURL,
		PriceCents:  item.PriceCents,
		PartnerID:   item.PartnerID,
		LikesCount:  item.LikesCount,
		SavesCount:  item.SavesCount,
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
	}
}

func decodeFoodDocument(snapshot *firestore.DocumentSnapshot) (domain.FoodItem, error) {
	var doc foodDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.FoodItem{}, fmt.Errorf("decode food %s: %w", snapshot.Ref.ID, err)
	}
	return domain.FoodItem{
		ID:          snapshot.Ref.ID,
		Name:        doc.Name,
		Description: doc.Description,
		VideoURL:    doc.VideoURL,
		PriceCents:  doc.PriceCents,
		PartnerID:   doc.PartnerID,
		LikesCount:  doc.LikesCount,
		SavesCount:  doc.SavesCount,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

// Ensure interface compliance.
var _ repositories.FoodRepository = (*FoodRepository)(nil)
