package handlers

import (
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/platefeed/api/internal/domain"
	"github.com/platefeed/api/internal/platform/auth"
	"github.com/platefeed/api/internal/platform/httpx"
	"github.com/platefeed/api/internal/services"
)

const maxVideoUploadBytes = 64 << 20

// FoodHandlers serves the catalog and engagement endpoints.
type FoodHandlers struct {
	catalog     services.CatalogService
	engagements services.EngagementService
	authn       *auth.Authenticator
}

// NewFoodHandlers constructs the food handler set.
func NewFoodHandlers(catalog services.CatalogService, engagements services.EngagementService, authn *auth.Authenticator) *FoodHandlers {
	return &FoodHandlers{catalog: catalog, engagements: engagements, authn: authn}
}

// Routes registers the food endpoints on the group.
func (h *FoodHandlers) Routes(r chi.Router) {
	r.With(h.authn.Optional()).Get("/", h.list)
	r.With(h.authn.Require(domain.RolePartner)).Post("/", h.create)
	r.With(h.authn.Require(domain.RoleUser)).Get("/saved", h.listSaved)
	r.With(h.authn.Optional()).Get("/{foodID}", h.get)
	r.With(h.authn.Require(domain.RoleUser)).Post("/{foodID}/like", h.toggleLike)
	r.With(h.authn.Require(domain.RoleUser)).Post("/{foodID}/save", h.toggleSave)
}

func (h *FoodHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer, _ := auth.PrincipalFromContext(ctx)

	listed, err := h.catalog.ListFoods(ctx, viewer)
	if err != nil {
		httpx.WriteDomainError(ctx, w, err)
		return
	}

	payload := make([]foodPayload, 0, len(listed))
	for _, entry := range listed {
		payload = append(payload, buildFoodPayload(entry))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"foods": payload})
}

func (h *FoodHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer, _ := auth.PrincipalFromContext(ctx)

	entry, err := h.catalog.GetFood(ctx, viewer, chi.URLParam(r, "foodID"))
	if err != nil {
		httpx.WriteDomainError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildFoodPayload(entry))
}

func (h *FoodHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := auth.PrincipalFromContext(ctx)

	cmd, ok := h.decodeCreateFood(w, r)
	if !ok {
		return
	}
	cmd.PartnerID = principal.ID

	item, err := h.catalog.CreateFood(ctx, cmd)
	if err != nil {
		httpx.WriteDomainError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildFoodPayload(domain.EngagedFoodItem{Item: item}))
}

// decodeCreateFood accepts either a JSON document or a multipart form carrying
// the item fields plus an optional video part.
func (h *FoodHandlers) decodeCreateFood(w http.ResponseWriter, r *http.Request) (services.CreateFoodCommand, bool) {
	ctx := r.Context()

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil && strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(maxVideoUploadBytes); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "could not parse multipart form", http.StatusBadRequest))
			return services.CreateFoodCommand{}, false
		}
		cmd := services.CreateFoodCommand{
			Name:        r.FormValue("name"),
			Description: r.FormValue("description"),
		}
		priceRaw := strings.TrimSpace(r.FormValue("price_cents"))
		if priceRaw != "" {
			price, err := parseInt64(priceRaw)
			if err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "price_cents must be an integer", http.StatusBadRequest))
				return services.CreateFoodCommand{}, false
			}
			cmd.PriceCents = price
		}
		if file, header, err := r.FormFile("video"); err == nil {
			cmd.Video = file
			cmd.VideoContentType = header.Header.Get("Content-Type")
		}
		return cmd, true
	}

	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		PriceCents  int64  `json:"price_cents"`
	}
	if !decodeJSONBody(ctx, w, r, &body) {
		return services.CreateFoodCommand{}, false
	}
	return services.CreateFoodCommand{
		Name:        body.Name,
		Description: body.Description,
		PriceCents:  body.PriceCents,
	}, true
}

func (h *FoodHandlers) listSaved(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer, _ := auth.PrincipalFromContext(ctx)

	saved, err := h.engagements.ListSaved(ctx, viewer)
	if err != nil {
		httpx.WriteDomainError(ctx, w, err)
		return
	}

	payload := make([]savedFoodPayload, 0, len(saved))
	for _, entry := range saved {
		payload = append(payload, savedFoodPayload{
			Food:    buildFoodPayload(domain.EngagedFoodItem{Item: entry.Item, IsSaved: true}),
			SavedAt: formatTime(entry.SavedAt),
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"foods": payload})
}

func (h *FoodHandlers) toggleLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, domain.EngagementLike)
}

func (h *FoodHandlers) toggleSave(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, domain.EngagementSave)
}

func (h *FoodHandlers) toggle(w http.ResponseWriter, r *http.Request, kind domain.EngagementKind) {
	ctx := r.Context()
	viewer, _ := auth.PrincipalFromContext(ctx)
	foodID := chi.URLParam(r, "foodID")

	var (
		state domain.EngagementState
		err   error
	)
	if kind == domain.EngagementLike {
		state, err = h.engagements.ToggleLike(ctx, viewer, foodID)
	} else {
		state, err = h.engagements.ToggleSave(ctx, viewer, foodID)
	}
	if err != nil {
		httpx.WriteDomainError(ctx, w, err)
		return
	}

	if kind == domain.EngagementLike {
		writeJSONResponse(w, http.StatusOK, likeStatePayload{Liked: state.Active, LikesCount: state.Count})
		return
	}
	writeJSONResponse(w, http.StatusOK, saveStatePayload{Saved: state.Active, SavesCount: state.Count})
}

type foodPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	VideoURL    string `json:"video_url,omitempty"`
	PriceCents  int64  `json:"price_cents"`
	PartnerID   string `json:"partner_id"`
	LikesCount  int64  `json:"likes_count"`
	SavesCount  int64  `json:"saves_count"`
	IsLiked     bool   `json:"is_liked"`
	IsSaved     bool   `json:"is_saved"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

type savedFoodPayload struct {
	Food    foodPayload `json:"food"`
	SavedAt string      `json:"saved_at"`
}

type likeStatePayload struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

type saveStatePayload struct {
	Saved      bool  `json:"saved"`
	SavesCount int64 `json:"saves_count"`
}

func buildFoodPayload(entry domain.EngagedFoodItem) foodPayload {
	item := entry.Item
	return foodPayload{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		VideoURL:    item.VideoURL,
		PriceCents:  item.PriceCents,
		PartnerID:   item.PartnerID,
		LikesCount:  item.LikesCount,
		SavesCount:  item.SavesCount,
		IsLiked:     entry.IsLiked,
		IsSaved:     entry.IsSaved,
		CreatedAt:   formatTime(item.CreatedAt),
		UpdatedAt:   formatTime(item.UpdatedAt),
	}
}
