package services

import (
	"context"
	"io"
	"time"

	domain "github.com/platefeed/api/internal/domain"
)

const (
	orderEventPlaced        = "order.placed"
	orderEventStatusChanged = "order.status.changed"
)

// CatalogService serves the browsable catalog and partner item creation.
type CatalogService interface {
	ListFoods(ctx context.Context, viewer domain.Principal) ([]domain.EngagedFoodItem, error)
	GetFood(ctx context.Context, viewer domain.Principal, foodID string) (domain.EngagedFoodItem, error)
	CreateFood(ctx context.Context, cmd CreateFoodCommand) (domain.FoodItem, error)
}

// CreateFoodCommand carries the input for a partner catalog item. Video is
// optional; when present it is uploaded and its public URL stored on the item.
type CreateFoodCommand struct {
	PartnerID        string
	Name             string
	Description      string
	PriceCents       int64
	VideoContentType string
	Video            io.Reader
}

// EngagementService owns the like/save toggle paths and the saved listing.
type EngagementService interface {
	ToggleLike(ctx context.Context, viewer domain.Principal, foodID string) (domain.EngagementState, error)
	ToggleSave(ctx context.Context, viewer domain.Principal, foodID string) (domain.EngagementState, error)
	ListSaved(ctx context.Context, viewer domain.Principal) ([]domain.SavedFoodItem, error)
}

// OrderService orchestrates order placement and the fulfillment lifecycle.
type OrderService interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.Order, error)
	GetOrder(ctx context.Context, viewer domain.Principal, orderID string) (domain.Order, error)
	ListMyOrders(ctx context.Context, viewer domain.Principal) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (domain.Order, error)
}

// OrderLineInput is one requested catalog item within a placement.
type OrderLineInput struct {
	FoodID   string
	Quantity int
}

// PlaceOrderCommand carries a user's placement request. PartnerID names the
// selling partner the order is directed at; every line must resolve to an item
// owned by that partner.
type PlaceOrderCommand struct {
	UserID    string
	PartnerID string
	Lines     []OrderLineInput
}

// UpdateOrderStatusCommand moves an order along its lifecycle. Partners drive
// fulfillment transitions; users may only cancel their own freshly placed order.
type UpdateOrderStatusCommand struct {
	Actor   domain.Principal
	OrderID string
	Status  domain.OrderStatus
}

// OrderEventPublisher publishes order lifecycle events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderEvent captures metadata for emitted order lifecycle events.
type OrderEvent struct {
	Type       string
	OrderID    string
	PartnerID  string
	Status     domain.OrderStatus
	OccurredAt time.Time
}
