package domain

import "time"

// FoodItem is a partner-owned catalog entry. LikesCount and SavesCount are
// denormalised aggregates maintained exclusively by the engagement toggle path;
// they always mirror the number of active relations referencing the item.
type FoodItem struct {
	ID          string
	Name        string
	Description string
	VideoURL    string
	PriceCents  int64
	PartnerID   string
	LikesCount  int64
	SavesCount  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EngagedFoodItem pairs a catalog item with the caller's engagement flags.
type EngagedFoodItem struct {
	Item    FoodItem
	IsLiked bool
	IsSaved bool
}

// SavedFoodItem is a saved catalog item together with when it was saved.
type SavedFoodItem struct {
	Item    FoodItem
	SavedAt time.Time
}

// EngagementKind distinguishes the two independent toggle relations.
type EngagementKind string

const (
	EngagementLike EngagementKind = "like"
	EngagementSave EngagementKind = "save"
)

// EngagementState reports the outcome of a toggle: whether the relation is now
// active and the post-adjustment counter value on the item.
type EngagementState struct {
	Active bool
	Count  int64
}

// OrderStatus enumerates the fulfillment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "PLACED"
	OrderStatusAccepted       OrderStatus = "ACCEPTED"
	OrderStatusPreparing      OrderStatus = "PREPARING"
	OrderStatusReady          OrderStatus = "READY"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// OrderLine captures one catalog item within an order. The snapshot fields are
// copied from the catalog at placement time and never change afterwards.
type OrderLine struct {
	FoodID             string
	NameSnapshot       string
	VideoSnapshot      string
	PriceCentsSnapshot int64
	Quantity           int
}

// Order is an immutable priced record of a placement against a single partner.
// Orders are never deleted; only Status moves after creation.
type Order struct {
	ID            string
	UserID        string
	PartnerID     string
	Lines         []OrderLine
	SubtotalCents int64
	TotalCents    int64
	Status        OrderStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Role tags the kind of authenticated principal.
type Role string

const (
	RoleUser    Role = "user"
	RolePartner Role = "partner"
)

// Principal is the identity resolved by the auth boundary. A zero Principal is
// the explicit anonymous marker.
type Principal struct {
	ID   string
	Role Role
}

// IsAnonymous reports whether no authenticated identity is attached.
func (p Principal) IsAnonymous() bool {
	return p.ID == ""
}
