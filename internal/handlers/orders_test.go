package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domain "github.com/platefeed/api/internal/domain"
)

func TestPlaceOrder(t *testing.T) {
	orders := &stubOrderService{
		order: domain.Order{
			ID:        "ord_1",
			UserID:    "user-1",
			PartnerID: "partner-1",
			Lines: []domain.OrderLine{
				{FoodID: "food_1", NameSnapshot: "Pad Thai", PriceCentsSnapshot: 1250, Quantity: 2},
			},
			SubtotalCents: 2500,
			TotalCents:    2500,
			Status:        domain.OrderStatusPlaced,
		},
	}
	handler := NewOrderHandlers(orders, testAuthenticator(t))
	router := testRouter(t, nil, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"food_partner_id":"partner-1","items":[{"food_id":"food_1","quantity":2}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(sessionCookie(t, domain.RoleUser, "user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if orders.placeCmd.UserID != "user-1" || orders.placeCmd.PartnerID != "partner-1" {
		t.Fatalf("unexpected command %+v", orders.placeCmd)
	}
	if len(orders.placeCmd.Lines) != 1 || orders.placeCmd.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected lines %+v", orders.placeCmd.Lines)
	}

	var body orderPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ID != "ord_1" || body.Status != "PLACED" || body.TotalCents != 2500 {
		t.Fatalf("unexpected payload %+v", body)
	}
	if len(body.Lines) != 1 || body.Lines[0].LineTotalCents != 2500 {
		t.Fatalf("unexpected lines %+v", body.Lines)
	}
}

func TestPlaceOrderRejectsMalformedBody(t *testing.T) {
	handler := NewOrderHandlers(&stubOrderService{}, testAuthenticator(t))
	router := testRouter(t, nil, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"items":`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(sessionCookie(t, domain.RoleUser, "user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPlaceOrderRequiresUserRole(t *testing.T) {
	handler := NewOrderHandlers(&stubOrderService{}, testAuthenticator(t))
	router := testRouter(t, nil, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"items":[]}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(sessionCookie(t, domain.RolePartner, "partner-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	orders := &stubOrderService{err: fmt.Errorf("%w: order ord_missing", domain.ErrNotFound)}
	handler := NewOrderHandlers(orders, testAuthenticator(t))
	router := testRouter(t, nil, handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/ord_missing", nil)
	req.AddCookie(sessionCookie(t, domain.RoleUser, "user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if orders.orderID != "ord_missing" {
		t.Fatalf("unexpected order id %q", orders.orderID)
	}
}

func TestListMyOrders(t *testing.T) {
	orders := &stubOrderService{
		orders: []domain.Order{
			{ID: "ord_2", UserID: "user-1", Status: domain.OrderStatusPlaced},
			{ID: "ord_1", UserID: "user-1", Status: domain.OrderStatusDelivered},
		},
	}
	handler := NewOrderHandlers(orders, testAuthenticator(t))
	router := testRouter(t, nil, handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/me", nil)
	req.AddCookie(sessionCookie(t, domain.RoleUser, "user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Orders []orderPayload `json:"orders"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Orders) != 2 || body.Orders[0].ID != "ord_2" {
		t.Fatalf("unexpected payload %+v", body.Orders)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	orders := &stubOrderService{
		order: domain.Order{ID: "ord_1", PartnerID: "partner-1", Status: domain.OrderStatusAccepted},
	}
	handler := NewOrderHandlers(orders, testAuthenticator(t))
	router := testRouter(t, nil, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/ord_1/status", strings.NewReader(`{"status":"ACCEPTED"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(sessionCookie(t, domain.RolePartner, "partner-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if orders.statusCmd.OrderID != "ord_1" || orders.statusCmd.Status != domain.OrderStatusAccepted {
		t.Fatalf("unexpected command %+v", orders.statusCmd)
	}
	if orders.statusCmd.Actor.Role != domain.RolePartner || orders.statusCmd.Actor.ID != "partner-1" {
		t.Fatalf("unexpected actor %+v", orders.statusCmd.Actor)
	}
}

func TestUpdateOrderStatusConflict(t *testing.T) {
	orders := &stubOrderService{err: fmt.Errorf("%w: cannot move order from READY to PLACED", domain.ErrConflict)}
	handler := NewOrderHandlers(orders, testAuthenticator(t))
	router := testRouter(t, nil, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/ord_1/status", strings.NewReader(`{"status":"PLACED"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(sessionCookie(t, domain.RolePartner, "partner-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
