package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/service"
)

// DiningEventService is the part of service.DiningEventService the endpoints use
type DiningEventService interface {
	Create(ctx context.Context, actor service.Actor, restaurantID string, req *model.CreateDiningEventRequest) (*model.DiningEvent, error)
	Get(ctx context.Context, viewer *service.Actor, id string) (*model.DiningEvent, error)
	Discover(ctx context.Context, filter model.DiningEventFilter) ([]*model.DiningEvent, bool, error)
	ListForRestaurant(ctx context.Context, actor service.Actor, restaurantID string, page model.Page) ([]*model.DiningEvent, bool, error)
	Update(ctx context.Context, actor service.Actor, id string, req *model.UpdateDiningEventRequest) (*model.DiningEvent, error)
	Publish(ctx context.Context, actor service.Actor, id string) (*model.DiningEvent, error)
	Cancel(ctx context.Context, actor service.Actor, id string) (*model.DiningEvent, error)
}

// EventHandler handles dining event HTTP requests
type EventHandler struct {
	svc DiningEventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(svc DiningEventService) *EventHandler {
	return &EventHandler{svc: svc}
}

// Discover handles GET /v1/events - published upcoming events.
// Filters: city, restaurant_id, from, to, max_price (minor units).
func (h *EventHandler) Discover(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.DiningEventFilter{
		City:         q.Get("city"),
		RestaurantID: q.Get("restaurant_id"),
		Page:         ParsePage(r),
	}

	var problem *model.ProblemDetails
	if filter.From, problem = parseTimeParam(r, "from"); problem != nil {
		WriteError(w, problem)
		return
	}
	if filter.To, problem = parseTimeParam(r, "to"); problem != nil {
		WriteError(w, problem)
		return
	}
	if raw := q.Get("max_price"); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || price < 0 {
			WriteError(w, model.NewValidationError([]model.FieldError{
				{Field: "max_price", Message: "max_price must be a non-negative integer"},
			}))
			return
		}
		filter.MaxPrice = &price
	}

	events, hasMore, err := h.svc.Discover(r.Context(), filter)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteCollection(w, http.StatusOK, events, NewPagination(filter.Page, hasMore), nil)
}

// Get handles GET /v1/events/{eventId}. Drafts are only visible to their host.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.Get(r.Context(), optionalActor(r), r.PathValue("eventId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, event, eventLinks(event))
}

// ListForRestaurant handles GET /v1/restaurants/{restaurantId}/events
func (h *EventHandler) ListForRestaurant(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	page := ParsePage(r)
	events, hasMore, err := h.svc.ListForRestaurant(r.Context(), actor, r.PathValue("restaurantId"), page)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteCollection(w, http.StatusOK, events, NewPagination(page, hasMore), nil)
}

// Create handles POST /v1/restaurants/{restaurantId}/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req model.CreateDiningEventRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	event, err := h.svc.Create(r.Context(), actor, r.PathValue("restaurantId"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusCreated, event, eventLinks(event))
}

// Update handles PATCH /v1/events/{eventId}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req model.UpdateDiningEventRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	event, err := h.svc.Update(r.Context(), actor, r.PathValue("eventId"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, event, eventLinks(event))
}

// Publish handles POST /v1/events/{eventId}/publish
func (h *EventHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Publish)
}

// Cancel handles POST /v1/events/{eventId}/cancel
func (h *EventHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

func (h *EventHandler) transition(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, service.Actor, string) (*model.DiningEvent, error)) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	event, err := fn(r.Context(), actor, r.PathValue("eventId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, event, eventLinks(event))
}

func eventLinks(event *model.DiningEvent) map[string]string {
	return map[string]string{
		"self":       "/v1/events/" + event.ID,
		"restaurant": "/v1/restaurants/" + event.RestaurantID,
		"tickets":    "/v1/events/" + event.ID + "/tickets",
		"memories":   "/v1/events/" + event.ID + "/memories",
	}
}
