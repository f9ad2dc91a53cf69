package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/platefeed/api/internal/domain"
	"github.com/platefeed/api/internal/platform/auth"
	"github.com/platefeed/api/internal/platform/httpx"
	"github.com/platefeed/api/internal/services"
)

// OrderHandlers serves the order endpoints.
type OrderHandlers struct {
	orders services.OrderService
	authn  *auth.Authenticator
}

// NewOrderHandlers constructs the order handler set.
func NewOrderHandlers(orders services.OrderService, authn *auth.Authenticator) *OrderHandlers {
	return &OrderHandlers{orders: orders, authn: authn}
}

// Routes registers the order endpoints on the group.
func (h *OrderHandlers) Routes(r chi.Router) {
	r.With(h.authn.Require(domain.RoleUser)).Post("/", h.place)
	r.With(h.authn.Require(domain.RoleUser)).Get("/me", h.listMine)
	r.With(h.authn.Require(domain.RoleUser, domain.RolePartner)).Get("/{orderID}", h.get)
	r.With(h.authn.Require(domain.RoleUser, domain.RolePartner)).Post("/{orderID}/status", h.updateStatus)
}

func (h *OrderHandlers) place(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := auth.PrincipalFromContext(ctx)

	var body struct {
		FoodPartnerID string `json:"food_partner_id"`
		Items         []struct {
			FoodID   string `json:"food_id"`
			Quantity int    `json:"quantity"`
		} `json:"items"`
	}
	if !decodeJSONBody(ctx, w, r, &body) {
		return
	}

	lines := make([]services.OrderLineInput, 0, len(body.Items))
	for _, item := range body.Items {
		lines = append(lines, services.OrderLineInput{FoodID: item.FoodID, Quantity: item.Quantity})
	}

	order, err := h.orders.PlaceOrder(ctx, services.PlaceOrderCommand{
		UserID:    principal.ID,
		PartnerID: body.FoodPartnerID,
		Lines:     lines,
	})
	if err != nil {
		httpx.WriteDomainError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildOrderPayload(order))
}

func (h *OrderHandlers) listMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := auth.PrincipalFromContext(ctx)

	orders, err := h.orders.ListMyOrders(ctx, principal)
	if err != nil {
		httpx.WriteDomainError(ctx, w, err)
		return
	}

	payload := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		payload = append(payload, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"orders": payload})
}

func (h *OrderHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := auth.PrincipalFromContext(ctx)

	order, err := h.orders.GetOrder(ctx, principal, chi.URLParam(r, "orderID"))
	if err != nil {
		httpx.WriteDomainError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

func (h *OrderHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := auth.PrincipalFromContext(ctx)

	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSONBody(ctx, w, r, &body) {
		return
	}

	order, err := h.orders.UpdateOrderStatus(ctx, services.UpdateOrderStatusCommand{
		Actor:   principal,
		OrderID: chi.URLParam(r, "orderID"),
		Status:  domain.OrderStatus(body.Status),
	})
	if err != nil {
		httpx.WriteDomainError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

type orderPayload struct {
	ID            string             `json:"id"`
	UserID        string             `json:"user_id"`
	PartnerID     string             `json:"partner_id"`
	Lines         []orderLinePayload `json:"lines"`
	SubtotalCents int64              `json:"subtotal_cents"`
	TotalCents    int64              `json:"total_cents"`
	Status        string             `json:"status"`
	CreatedAt     string             `json:"created_at,omitempty"`
	UpdatedAt     string             `json:"updated_at,omitempty"`
}

type orderLinePayload struct {
	FoodID         string `json:"food_id"`
	Name           string `json:"name"`
	VideoURL       string `json:"video_url,omitempty"`
	PriceCents     int64  `json:"price_cents"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
}

func buildOrderPayload(order domain.Order) orderPayload {
	lines := make([]orderLinePayload, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLinePayload{
			FoodID:         line.FoodID,
			Name:           line.NameSnapshot,
			VideoURL:       line.VideoSnapshot,
			PriceCents:     line.PriceCentsSnapshot,
			Quantity:       line.Quantity,
			LineTotalCents: line.PriceCentsSnapshot * int64(line.Quantity),
		})
	}
	return orderPayload{
		ID:            order.ID,
		UserID:        order.UserID,
		PartnerID:     order.PartnerID,
		Lines:         lines,
		SubtotalCents: order.SubtotalCents,
		TotalCents:    order.TotalCents,
		Status:        string(order.Status),
		CreatedAt:     formatTime(order.CreatedAt),
		UpdatedAt:     formatTime(order.UpdatedAt),
	}
}
