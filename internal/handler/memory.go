package handler

import (
	"context"
	"net/http"

	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/service"
)

// MemoryService is the part of service.MemoryService the endpoints use
type MemoryService interface {
	Create(ctx context.Context, actor service.Actor, eventID string, req *model.CreateMemoryRequest) (*model.Memory, error)
	ListByEvent(ctx context.Context, eventID string, page model.Page) ([]*model.Memory, bool, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
}

// MemoryHandler handles photos and stories shared after an event
type MemoryHandler struct {
	svc MemoryService
}

// NewMemoryHandler creates a new memory handler
func NewMemoryHandler(svc MemoryService) *MemoryHandler {
	return &MemoryHandler{svc: svc}
}

// List handles GET /v1/events/{eventId}/memories
func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	page := ParsePage(r)
	memories, hasMore, err := h.svc.ListByEvent(r.Context(), r.PathValue("eventId"), page)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteCollection(w, http.StatusOK, memories, NewPagination(page, hasMore), nil)
}

// Create handles POST /v1/events/{eventId}/memories
func (h *MemoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req model.CreateMemoryRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	memory, err := h.svc.Create(r.Context(), actor, r.PathValue("eventId"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusCreated, memory, nil)
}

// Delete handles DELETE /v1/memories/{memoryId}
func (h *MemoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), actor, r.PathValue("memoryId")); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteNoContent(w)
}
