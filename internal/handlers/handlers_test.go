package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"

	domain "github.com/platefeed/api/internal/domain"
	"github.com/platefeed/api/internal/platform/auth"
	"github.com/platefeed/api/internal/services"
)

const testSigningSecret = "handler-test-secret"

func testAuthenticator(t *testing.T) *auth.Authenticator {
	t.Helper()
	sessions, err := auth.NewSessionVerifier(testSigningSecret)
	if err != nil {
		t.Fatalf("new session verifier: %v", err)
	}
	return auth.NewAuthenticator(sessions)
}

func sessionCookie(t *testing.T, role domain.Role, subject string) *http.Cookie {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	name := "pf_user_token"
	if role == domain.RolePartner {
		name = "pf_partner_token"
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningSecret))
	if err != nil {
		t.Fatalf("sign session token: %v", err)
	}
	return &http.Cookie{Name: name, Value: token}
}

func testRouter(t *testing.T, foods *FoodHandlers, orders *OrderHandlers) chi.Router {
	t.Helper()
	opts := []Option{}
	if foods != nil {
		opts = append(opts, WithFoodRoutes(foods.Routes))
	}
	if orders != nil {
		opts = append(opts, WithOrderRoutes(orders.Routes))
	}
	return NewRouter(opts...)
}

type stubCatalogService struct {
	listed    []domain.EngagedFoodItem
	entry     domain.EngagedFoodItem
	created   domain.FoodItem
	err       error
	createCmd services.CreateFoodCommand
	viewer    domain.Principal
}

func (s *stubCatalogService) ListFoods(_ context.Context, viewer domain.Principal) ([]domain.EngagedFoodItem, error) {
	s.viewer = viewer
	return s.listed, s.err
}

func (s *stubCatalogService) GetFood(_ context.Context, viewer domain.Principal, foodID string) (domain.EngagedFoodItem, error) {
	s.viewer = viewer
	if s.err != nil {
		return domain.EngagedFoodItem{}, s.err
	}
	return s.entry, nil
}

func (s *stubCatalogService) CreateFood(_ context.Context, cmd services.CreateFoodCommand) (domain.FoodItem, error) {
	s.createCmd = cmd
	if s.err != nil {
		return domain.FoodItem{}, s.err
	}
	return s.created, nil
}

type stubEngagementService struct {
	state  domain.EngagementState
	saved  []domain.SavedFoodItem
	err    error
	kind   domain.EngagementKind
	foodID string
	viewer domain.Principal
}

func (s *stubEngagementService) ToggleLike(_ context.Context, viewer domain.Principal, foodID string) (domain.EngagementState, error) {
	s.kind, s.viewer, s.foodID = domain.EngagementLike, viewer, foodID
	return s.state, s.err
}

func (s *stubEngagementService) ToggleSave(_ context.Context, viewer domain.Principal, foodID string) (domain.EngagementState, error) {
	s.kind, s.viewer, s.foodID = domain.EngagementSave, viewer, foodID
	return s.state, s.err
}

func (s *stubEngagementService) ListSaved(_ context.Context, viewer domain.Principal) ([]domain.SavedFoodItem, error) {
	s.viewer = viewer
	return s.saved, s.err
}

type stubOrderService struct {
	order     domain.Order
	orders    []domain.Order
	err       error
	placeCmd  services.PlaceOrderCommand
	statusCmd services.UpdateOrderStatusCommand
	viewer    domain.Principal
	orderID   string
}

func (s *stubOrderService) PlaceOrder(_ context.Context, cmd services.PlaceOrderCommand) (domain.Order, error) {
	s.placeCmd = cmd
	if s.err != nil {
		return domain.Order{}, s.err
	}
	return s.order, nil
}

func (s *stubOrderService) GetOrder(_ context.Context, viewer domain.Principal, orderID string) (domain.Order, error) {
	s.viewer, s.orderID = viewer, orderID
	if s.err != nil {
		return domain.Order{}, s.err
	}
	return s.order, nil
}

func (s *stubOrderService) ListMyOrders(_ context.Context, viewer domain.Principal) ([]domain.Order, error) {
	s.viewer = viewer
	return s.orders, s.err
}

func (s *stubOrderService) UpdateOrderStatus(_ context.Context, cmd services.UpdateOrderStatusCommand) (domain.Order, error) {
	s.statusCmd = cmd
	if s.err != nil {
		return domain.Order{}, s.err
	}
	return s.order, nil
}
