package repositories

import (
	"context"
	"time"

	domain "github.com/platefeed/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation
// used by services. Unavailability is the only fatal class; services map
// not-found and conflict into the business taxonomy and pass outages through.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// FoodRepository persists catalog items and serves snapshot reads.
type FoodRepository interface {
	Insert(ctx context.Context, item domain.FoodItem) error
	FindByID(ctx context.Context, foodID string) (domain.FoodItem, error)
	List(ctx context.Context) ([]domain.FoodItem, error)
	// ResolveMany returns current snapshots for the requested ids, omitting
	// unresolvable ids rather than failing.
	ResolveMany(ctx context.Context, foodIDs []string) (map[string]domain.FoodItem, error)
}

// OrderRepository persists order records scoped by owning user.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	// ListByUser returns the user's orders newest-first.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	// UpdateStatus moves the order from the expected current status to the
	// next one, failing with a conflict when the stored status has moved on.
	UpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, updatedAt time.Time) error
}

// EngagementRepository owns like/save relations and the denormalised counters
// on the catalog item. Toggle must apply the relation write and the counter
// adjustment as a single atomic unit per (user, item, kind) key.
type EngagementRepository interface {
	Toggle(ctx context.Context, kind domain.EngagementKind, userID string, foodID string, now time.Time) (domain.EngagementState, error)
	// ListSaved returns the user's saved items with full catalog snapshots,
	// most recently saved first.
	ListSaved(ctx context.Context, userID string) ([]domain.SavedFoodItem, error)
	// EngagedFoodIDs returns the set of item ids the user has an active
	// relation of the given kind for.
	EngagedFoodIDs(ctx context.Context, kind domain.EngagementKind, userID string) (map[string]struct{}, error)
}
