package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/platefeed/api/internal/domain"
)

type stubRepoError struct {
	notFound    bool
	conflict    bool
	unavailable bool
	message     string
}

func (e stubRepoError) Error() string {
	if e.message != "" {
		return e.message
	}
	return "stub repository error"
}

func (e stubRepoError) IsNotFound() bool    { return e.notFound }
func (e stubRepoError) IsConflict() bool    { return e.conflict }
func (e stubRepoError) IsUnavailable() bool { return e.unavailable }

type stubFoodRepository struct {
	mu    sync.Mutex
	items map[string]domain.FoodItem
	err   error
}

func newStubFoodRepository(items ...domain.FoodItem) *stubFoodRepository {
	repo := &stubFoodRepository{items: make(map[string]domain.FoodItem)}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (r *stubFoodRepository) Insert(_ context.Context, item domain.FoodItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, exists := r.items[item.ID]; exists {
		return stubRepoError{conflict: true, message: "food exists"}
	}
	r.items[item.ID] = item
	return nil
}

func (r *stubFoodRepository) FindByID(_ context.Context, foodID string) (domain.FoodItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return domain.FoodItem{}, r.err
	}
	item, ok := r.items[foodID]
	if !ok {
		return domain.FoodItem{}, stubRepoError{notFound: true, message: "food missing"}
	}
	return item, nil
}

func (r *stubFoodRepository) List(_ context.Context) ([]domain.FoodItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	items := make([]domain.FoodItem, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	return items, nil
}

func (r *stubFoodRepository) ResolveMany(_ context.Context, foodIDs []string) (map[string]domain.FoodItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	resolved := make(map[string]domain.FoodItem)
	for _, id := range foodIDs {
		if item, ok := r.items[id]; ok {
			resolved[id] = item
		}
	}
	return resolved, nil
}

type stubOrderRepository struct {
	mu     sync.Mutex
	orders map[string]domain.Order
	err    error
}

func newStubOrderRepository(orders ...domain.Order) *stubOrderRepository {
	repo := &stubOrderRepository{orders: make(map[string]domain.Order)}
	for _, order := range orders {
		repo.orders[order.ID] = order
	}
	return repo
}

func (r *stubOrderRepository) Insert(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, exists := r.orders[order.ID]; exists {
		return stubRepoError{conflict: true, message: "order exists"}
	}
	r.orders[order.ID] = order
	return nil
}

func (r *stubOrderRepository) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return domain.Order{}, r.err
	}
	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, stubRepoError{notFound: true, message: "order missing"}
	}
	return order, nil
}

func (r *stubOrderRepository) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var orders []domain.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders, nil
}

func (r *stubOrderRepository) UpdateStatus(_ context.Context, orderID string, from, to domain.OrderStatus, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	order, ok := r.orders[orderID]
	if !ok {
		return stubRepoError{notFound: true, message: "order missing"}
	}
	if order.Status != from {
		return stubRepoError{conflict: true, message: fmt.Sprintf("order is %s, not %s", order.Status, from)}
	}
	order.Status = to
	order.UpdatedAt = updatedAt
	r.orders[orderID] = order
	return nil
}

func (r *stubOrderRepository) all() []domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orders = append(orders, order)
	}
	return orders
}

type stubEngagementRepository struct {
	mu           sync.Mutex
	items        map[string]domain.FoodItem
	counts       map[string]int64
	relations    map[string]map[string]time.Time
	engagedCalls int
	err          error
}

func newStubEngagementRepository(items ...domain.FoodItem) *stubEngagementRepository {
	repo := &stubEngagementRepository{
		items:     make(map[string]domain.FoodItem),
		counts:    make(map[string]int64),
		relations: make(map[string]map[string]time.Time),
	}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func relationKey(kind domain.EngagementKind, foodID string) string {
	return fmt.Sprintf("%s|%s", kind, foodID)
}

func (r *stubEngagementRepository) Toggle(_ context.Context, kind domain.EngagementKind, userID string, foodID string, now time.Time) (domain.EngagementState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return domain.EngagementState{}, r.err
	}
	if _, ok := r.items[foodID]; !ok {
		return domain.EngagementState{}, stubRepoError{notFound: true, message: "food missing"}
	}

	key := relationKey(kind, foodID)
	users := r.relations[key]
	if users == nil {
		users = make(map[string]time.Time)
		r.relations[key] = users
	}

	if _, active := users[userID]; active {
		delete(users, userID)
		if r.counts[key] > 0 {
			r.counts[key]--
		}
		return domain.EngagementState{Active: false, Count: r.counts[key]}, nil
	}
	users[userID] = now
	r.counts[key]++
	return domain.EngagementState{Active: true, Count: r.counts[key]}, nil
}

func (r *stubEngagementRepository) ListSaved(_ context.Context, userID string) ([]domain.SavedFoodItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var saved []domain.SavedFoodItem
	for foodID, item := range r.items {
		if at, ok := r.relations[relationKey(domain.EngagementSave, foodID)][userID]; ok {
			saved = append(saved, domain.SavedFoodItem{Item: item, SavedAt: at})
		}
	}
	sort.Slice(saved, func(i, j int) bool {
		return saved[i].SavedAt.After(saved[j].SavedAt)
	})
	return saved, nil
}

func (r *stubEngagementRepository) EngagedFoodIDs(_ context.Context, kind domain.EngagementKind, userID string) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engagedCalls++
	if r.err != nil {
		return nil, r.err
	}
	ids := make(map[string]struct{})
	for foodID := range r.items {
		if _, ok := r.relations[relationKey(kind, foodID)][userID]; ok {
			ids[foodID] = struct{}{}
		}
	}
	return ids, nil
}

type stubOrderEventPublisher struct {
	mu     sync.Mutex
	events []OrderEvent
	err    error
}

func (p *stubOrderEventPublisher) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *stubOrderEventPublisher) published() []OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]OrderEvent(nil), p.events...)
}
