package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/platefeed/api/internal/domain"
	pfirestore "github.com/platefeed/api/internal/platform/firestore"
	"github.com/platefeed/api/internal/repositories"
)

const (
	likeSubcollection = "likes"
	saveSubcollection = "saves"
)

// EngagementRepository stores like/save relations as subcollection documents
// keyed by user id under each catalog item. The document key makes a second
// activation of the same relation structurally impossible, and the counter on
// the parent item moves in the same transaction as the relation write.
type EngagementRepository struct {
	provider *pfirestore.Provider
}

// NewEngagementRepository constructs a Firestore-backed engagement repository.
func NewEngagementRepository(provider *pfirestore.Provider) (*EngagementRepository, error) {
	if provider == nil {
		return nil, errors.New("engagement repository requires firestore provider")
	}
	return &EngagementRepository{provider: provider}, nil
}

// Toggle flips the relation for (kind, user, item) and adjusts the item's
// counter atomically. The item document is read inside the transaction, so a
// missing item surfaces as not-found and the decrement never drives a counter
// below zero even if the stored value drifted.
func (r *EngagementRepository) Toggle(ctx context.Context, kind domain.EngagementKind, userID string, foodID string, now time.Time) (domain.EngagementState, error) {
	if r == nil || r.provider == nil {
		return domain.EngagementState{}, errors.New("engagement repository not initialised")
	}
	subcollection, counterField, err := engagementPaths(kind)
	if err != nil {
		return domain.EngagementState{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.EngagementState{}, errors.New("engagement repository: user id is required")
	}
	foodID = strings.TrimSpace(foodID)
	if foodID == "" {
		return domain.EngagementState{}, errors.New("engagement repository: food id is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.EngagementState{}, err
	}
	foodRef := client.Collection(foodCollection).Doc(foodID)
	relationRef := foodRef.Collection(subcollection).Doc(userID)

	var state domain.EngagementState
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		foodSnap, err := tx.Get(foodRef)
		if err != nil {
			return err
		}
		var food foodDocument
		if err := foodSnap.DataTo(&food); err != nil {
			return fmt.Errorf("decode food %s: %w", foodSnap.Ref.ID, err)
		}
		current := food.LikesCount
		if kind == domain.EngagementSave {
			current = food.SavesCount
		}

		active := true
		if _, err := tx.Get(relationRef); err == nil {
			active = false
		} else if status.Code(err) != codes.NotFound {
			return err
		}

		if active {
			if err := tx.Create(relationRef, engagementDocument{
				UserID:    userID,
				CreatedAt: now.UTC(),
			}); err != nil {
				return err
			}
			if err := tx.Update(foodRef, []firestore.Update{
				{Path: counterField, Value: firestore.Increment(1)},
				{Path: "updatedAt", Value: now.UTC()},
			}); err != nil {
				return err
			}
			state = domain.EngagementState{Active: true, Count: current + 1}
			return nil
		}

		if err := tx.Delete(relationRef); err != nil {
			return err
		}
		var delta int64
		if current > 0 {
			delta = -1
		}
		if err := tx.Update(foodRef, []firestore.Update{
			{Path: counterField, Value: firestore.Increment(delta)},
			{Path: "updatedAt", Value: now.UTC()},
		}); err != nil {
			return err
		}
		state = domain.EngagementState{Active: false, Count: current + delta}
		return nil
	})
	if err != nil {
		return domain.EngagementState{}, pfirestore.WrapError("engagements.toggle", err)
	}
	return state, nil
}

// ListSaved returns the user's saved items most recently saved first, with the
// catalog snapshot hydrated for each surviving item. Relations whose item has
// since disappeared are skipped.
func (r *EngagementRepository) ListSaved(ctx context.Context, userID string) ([]domain.SavedFoodItem, error) {
	relations, foodRefs, err := r.relations(ctx, saveSubcollection, userID)
	if err != nil {
		return nil, err
	}
	if len(foodRefs) == 0 {
		return nil, nil
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	snaps, err := client.GetAll(ctx, foodRefs)
	if err != nil {
		return nil, pfirestore.WrapError("engagements.saved", err)
	}

	saved := make([]domain.SavedFoodItem, 0, len(snaps))
	for i, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		item, err := decodeFoodDocument(snap)
		if err != nil {
			return nil, err
		}
		saved = append(saved, domain.SavedFoodItem{
			Item:    item,
			SavedAt: relations[i].CreatedAt,
		})
	}
	return saved, nil
}

// EngagedFoodIDs returns the item ids the user has an active relation of the
// given kind for, using a collection-group query over the relation documents.
func (r *EngagementRepository) EngagedFoodIDs(ctx context.Context, kind domain.EngagementKind, userID string) (map[string]struct{}, error) {
	subcollection, _, err := engagementPaths(kind)
	if err != nil {
		return nil, err
	}
	relations, foodRefs, err := r.relations(ctx, subcollection, userID)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]struct{}, len(relations))
	for _, ref := range foodRefs {
		ids[ref.ID] = struct{}{}
	}
	return ids, nil
}

func (r *EngagementRepository) relations(ctx context.Context, subcollection string, userID string) ([]engagementDocument, []*firestore.DocumentRef, error) {
	if r == nil || r.provider == nil {
		return nil, nil, errors.New("engagement repository not initialised")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil, errors.New("engagement repository: user id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, nil, err
	}

	query := client.CollectionGroup(subcollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc)
	iter := query.Documents(ctx)
	defer iter.Stop()

	var (
		docs []engagementDocument
		refs []*firestore.DocumentRef
	)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, nil, pfirestore.WrapError("engagements.relations", err)
		}
		var doc engagementDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, nil, fmt.Errorf("decode engagement %s: %w", snap.Ref.Path, err)
		}
		parent := snap.Ref.Parent.Parent
		if parent == nil {
			continue
		}
		docs = append(docs, doc)
		refs = append(refs, parent)
	}
	return docs, refs, nil
}

func engagementPaths(kind domain.EngagementKind) (subcollection string, counterField string, err error) {
	switch kind {
	case domain.EngagementLike:
		return likeSubcollection, "likesCount", nil
	case domain.EngagementSave:
		return saveSubcollection, "savesCount", nil
	default:
		return "", "", fmt.Errorf("engagement repository: unknown kind %q", kind)
	}
}

type engagementDocument struct {
	UserID    string    `firestore:"userId"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// Ensure interface compliance.
var _ repositories.EngagementRepository = (*EngagementRepository)(nil)
