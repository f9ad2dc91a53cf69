package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	domain "github.com/platefeed/api/internal/domain"
	"github.com/platefeed/api/internal/platform/requestctx"
	"github.com/platefeed/api/internal/repositories"
)

const orderIDPrefix = "ord_"

// partnerOrderTransitions is the fulfillment lifecycle driven by the owning
// partner. Delivered and cancelled are terminal.
var partnerOrderTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPlaced:         {domain.OrderStatusAccepted, domain.OrderStatusCancelled},
	domain.OrderStatusAccepted:       {domain.OrderStatusPreparing, domain.OrderStatusCancelled},
	domain.OrderStatusPreparing:      {domain.OrderStatusReady, domain.OrderStatusCancelled},
	domain.OrderStatusReady:          {domain.OrderStatusOutForDelivery},
	domain.OrderStatusOutForDelivery: {domain.OrderStatusDelivered},
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	Foods       repositories.FoodRepository
	Clock       func() time.Time
	IDGenerator func() string
	Events      OrderEventPublisher
}

type orderService struct {
	orders repositories.OrderRepository
	foods  repositories.FoodRepository
	clock  func() time.Time
	newID  func() string
	events OrderEventPublisher
}

// NewOrderService constructs the order service over its repositories.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Foods == nil {
		return nil, errors.New("order service: food repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string {
			return orderIDPrefix + ulid.Make().String()
		}
	}

	return &orderService{
		orders: deps.Orders,
		foods:  deps.Foods,
		clock:  func() time.Time { return clock().UTC() },
		newID:  newID,
		events: deps.Events,
	}, nil
}

// normalizeOrderLines validates and canonicalises the requested lines: ids are
// trimmed, quantities must be positive, and repeated mentions of the same item
// merge into one line summing quantities, keeping first-mention order.
func normalizeOrderLines(lines []OrderLineInput) ([]OrderLineInput, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty order", domain.ErrInvalidInput)
	}

	merged := make([]OrderLineInput, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		id := strings.TrimSpace(line.FoodID)
		if id == "" {
			return nil, fmt.Errorf("%w: line is missing a food id", domain.ErrInvalidInput)
		}
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity for %s must be at least 1", domain.ErrInvalidInput, id)
		}
		if at, seen := index[id]; seen {
			merged[at].Quantity += line.Quantity
			continue
		}
		index[id] = len(merged)
		merged = append(merged, OrderLineInput{FoodID: id, Quantity: line.Quantity})
	}
	return merged, nil
}

func (s *orderService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.Order, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return domain.Order{}, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	partnerID := strings.TrimSpace(cmd.PartnerID)
	if partnerID == "" {
		return domain.Order{}, fmt.Errorf("%w: partner reference is required", domain.ErrInvalidInput)
	}

	lines, err := normalizeOrderLines(cmd.Lines)
	if err != nil {
		return domain.Order{}, err
	}

	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.FoodID)
	}
	items, err := s.foods.ResolveMany(ctx, ids)
	if err != nil {
		return domain.Order{}, mapRepositoryError(err, "order items")
	}
	if len(items) != len(lines) {
		missing := make([]string, 0, len(lines)-len(items))
		for _, line := range lines {
			if _, ok := items[line.FoodID]; !ok {
				missing = append(missing, line.FoodID)
			}
		}
		return domain.Order{}, fmt.Errorf("%w: unknown item(s) %s", domain.ErrNotFound, strings.Join(missing, ", "))
	}

	orderLines := make([]domain.OrderLine, 0, len(lines))
	var subtotal int64
	for _, line := range lines {
		item := items[line.FoodID]
		if item.PartnerID != partnerID {
			return domain.Order{}, fmt.Errorf("%w: cross-partner order", domain.ErrInvalidInput)
		}
		orderLines = append(orderLines, domain.OrderLine{
			FoodID:             item.ID,
			NameSnapshot:       item.Name,
			VideoSnapshot:      item.VideoURL,
			PriceCentsSnapshot: item.PriceCents,
			Quantity:           line.Quantity,
		})
		subtotal += item.PriceCents * int64(line.Quantity)
	}

	now := s.clock()
	order := domain.Order{
		ID:            s.newID(),
		UserID:        userID,
		PartnerID:     partnerID,
		Lines:         orderLines,
		SubtotalCents: subtotal,
		TotalCents:    subtotal,
		Status:        domain.OrderStatusPlaced,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return domain.Order{}, mapRepositoryError(err, "order "+order.ID)
	}

	s.publish(ctx, OrderEvent{
		Type:       orderEventPlaced,
		OrderID:    order.ID,
		PartnerID:  order.PartnerID,
		Status:     order.Status,
		OccurredAt: now,
	})
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, viewer domain.Principal, orderID string) (domain.Order, error) {
	if viewer.IsAnonymous() {
		return domain.Order{}, fmt.Errorf("%w: authentication required", domain.ErrForbidden)
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", domain.ErrInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, mapRepositoryError(err, "order "+orderID)
	}
	if !canViewOrder(viewer, order) {
		return domain.Order{}, fmt.Errorf("%w: order %s", domain.ErrForbidden, orderID)
	}
	return order, nil
}

func (s *orderService) ListMyOrders(ctx context.Context, viewer domain.Principal) ([]domain.Order, error) {
	if viewer.IsAnonymous() || viewer.Role != domain.RoleUser {
		return nil, fmt.Errorf("%w: user account required", domain.ErrForbidden)
	}
	orders, err := s.orders.ListByUser(ctx, viewer.ID)
	if err != nil {
		return nil, mapRepositoryError(err, "orders")
	}
	return orders, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (domain.Order, error) {
	if cmd.Actor.IsAnonymous() {
		return domain.Order{}, fmt.Errorf("%w: authentication required", domain.ErrForbidden)
	}
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", domain.ErrInvalidInput)
	}
	next, err := parseOrderStatus(cmd.Status)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, mapRepositoryError(err, "order "+orderID)
	}

	switch cmd.Actor.Role {
	case domain.RolePartner:
		if order.PartnerID != cmd.Actor.ID {
			return domain.Order{}, fmt.Errorf("%w: order %s", domain.ErrForbidden, orderID)
		}
		if !transitionAllowed(order.Status, next) {
			return domain.Order{}, fmt.Errorf("%w: cannot move order from %s to %s", domain.ErrConflict, order.Status, next)
		}
	case domain.RoleUser:
		if order.UserID != cmd.Actor.ID {
			return domain.Order{}, fmt.Errorf("%w: order %s", domain.ErrForbidden, orderID)
		}
		if next != domain.OrderStatusCancelled || order.Status != domain.OrderStatusPlaced {
			return domain.Order{}, fmt.Errorf("%w: orders can only be cancelled while still placed", domain.ErrConflict)
		}
	default:
		return domain.Order{}, fmt.Errorf("%w: order %s", domain.ErrForbidden, orderID)
	}

	now := s.clock()
	// The store re-checks the expected current status, so a racing transition
	// that commits first turns this write into a conflict.
	if err := s.orders.UpdateStatus(ctx, orderID, order.Status, next, now); err != nil {
		return domain.Order{}, mapRepositoryError(err, "order "+orderID)
	}
	order.Status = next
	order.UpdatedAt = now

	s.publish(ctx, OrderEvent{
		Type:       orderEventStatusChanged,
		OrderID:    order.ID,
		PartnerID:  order.PartnerID,
		Status:     next,
		OccurredAt: now,
	})
	return order, nil
}

// publish emits the event best-effort: placement and transitions have already
// committed, so a publish failure is logged rather than surfaced to the caller.
func (s *orderService) publish(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		requestctx.Logger(ctx).Warn("order event publish failed",
			zap.String("event", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}

func canViewOrder(viewer domain.Principal, order domain.Order) bool {
	switch viewer.Role {
	case domain.RoleUser:
		return order.UserID == viewer.ID
	case domain.RolePartner:
		return order.PartnerID == viewer.ID
	default:
		return false
	}
}

func transitionAllowed(from, to domain.OrderStatus) bool {
	for _, candidate := range partnerOrderTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func parseOrderStatus(raw domain.OrderStatus) (domain.OrderStatus, error) {
	status := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(string(raw))))
	switch status {
	case domain.OrderStatusPlaced, domain.OrderStatusAccepted, domain.OrderStatusPreparing,
		domain.OrderStatusReady, domain.OrderStatusOutForDelivery,
		domain.OrderStatusDelivered, domain.OrderStatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, raw)
	}
}
