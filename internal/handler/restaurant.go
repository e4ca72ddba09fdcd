package handler

import (
	"context"
	"net/http"

	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/service"
)

// RestaurantService is the part of service.RestaurantService the endpoints use
type RestaurantService interface {
	Create(ctx context.Context, actor service.Actor, req *model.CreateRestaurantRequest) (*model.Restaurant, error)
	Get(ctx context.Context, id string) (*model.Restaurant, error)
	List(ctx context.Context, filter model.RestaurantFilter) ([]*model.Restaurant, bool, error)
	Update(ctx context.Context, actor service.Actor, id string, req *model.UpdateRestaurantRequest) (*model.Restaurant, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
}

// RestaurantHandler handles restaurant HTTP requests
type RestaurantHandler struct {
	svc RestaurantService
}

// NewRestaurantHandler creates a new restaurant handler
func NewRestaurantHandler(svc RestaurantService) *RestaurantHandler {
	return &RestaurantHandler{svc: svc}
}

// List handles GET /v1/restaurants. Anonymous callers and members only see
// active restaurants; owners see their own inactive ones with owner_id.
func (h *RestaurantHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.RestaurantFilter{
		City:    q.Get("city"),
		Cuisine: q.Get("cuisine"),
		Status:  q.Get("status"),
		OwnerID: q.Get("owner_id"),
		Page:    ParsePage(r),
	}

	viewer := optionalActor(r)
	canSeeInactive := viewer != nil && (viewer.IsAdmin() || (filter.OwnerID != "" && filter.OwnerID == viewer.UserID))
	if !canSeeInactive {
		filter.Status = model.RestaurantStatusActive
	}

	restaurants, hasMore, err := h.svc.List(r.Context(), filter)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteCollection(w, http.StatusOK, restaurants, NewPagination(filter.Page, hasMore), nil)
}

// Get handles GET /v1/restaurants/{restaurantId}
func (h *RestaurantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("restaurantId")
	if id == "" {
		WriteError(w, model.NewBadRequestError("restaurant ID required"))
		return
	}

	restaurant, err := h.svc.Get(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, restaurant, restaurantLinks(restaurant.ID))
}

// Create handles POST /v1/restaurants
func (h *RestaurantHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req model.CreateRestaurantRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	restaurant, err := h.svc.Create(r.Context(), actor, &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusCreated, restaurant, restaurantLinks(restaurant.ID))
}

// Update handles PATCH /v1/restaurants/{restaurantId}
func (h *RestaurantHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req model.UpdateRestaurantRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	restaurant, err := h.svc.Update(r.Context(), actor, r.PathValue("restaurantId"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, restaurant, restaurantLinks(restaurant.ID))
}

// Delete handles DELETE /v1/restaurants/{restaurantId}
func (h *RestaurantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), actor, r.PathValue("restaurantId")); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteNoContent(w)
}

func restaurantLinks(id string) map[string]string {
	return map[string]string{
		"self":   "/v1/restaurants/" + id,
		"menu":   "/v1/restaurants/" + id + "/menu",
		"events": "/v1/restaurants/" + id + "/events",
	}
}
