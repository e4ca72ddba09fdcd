package handler

import (
	"context"
	"net/http"

	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/service"
)

// MenuService is the part of service.MenuService the endpoints use
type MenuService interface {
	List(ctx context.Context, restaurantID string, availableOnly bool) ([]*model.MenuItem, error)
	Create(ctx context.Context, actor service.Actor, restaurantID string, req *model.CreateMenuItemRequest) (*model.MenuItem, error)
	Update(ctx context.Context, actor service.Actor, restaurantID, itemID string, req *model.UpdateMenuItemRequest) (*model.MenuItem, error)
	Delete(ctx context.Context, actor service.Actor, restaurantID, itemID string) error
}

// MenuHandler handles a restaurant's menu items
type MenuHandler struct {
	svc MenuService
}

// NewMenuHandler creates a new menu handler
func NewMenuHandler(svc MenuService) *MenuHandler {
	return &MenuHandler{svc: svc}
}

// List handles GET /v1/restaurants/{restaurantId}/menu.
// ?available=true hides items that are off the menu.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	availableOnly := r.URL.Query().Get("available") == "true"

	items, err := h.svc.List(r.Context(), r.PathValue("restaurantId"), availableOnly)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, items, nil)
}

// Create handles POST /v1/restaurants/{restaurantId}/menu
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req model.CreateMenuItemRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	item, err := h.svc.Create(r.Context(), actor, r.PathValue("restaurantId"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusCreated, item, nil)
}

// Update handles PATCH /v1/restaurants/{restaurantId}/menu/{itemId}
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req model.UpdateMenuItemRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	item, err := h.svc.Update(r.Context(), actor, r.PathValue("restaurantId"), r.PathValue("itemId"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, item, nil)
}

// Delete handles DELETE /v1/restaurants/{restaurantId}/menu/{itemId}
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), actor, r.PathValue("restaurantId"), r.PathValue("itemId")); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteNoContent(w)
}
