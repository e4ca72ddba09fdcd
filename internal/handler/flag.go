package handler

import (
	"context"
	"net/http"

	"github.com/eatmeetclub/api/internal/model"
)

// FlagService is the part of service.FlagService the endpoints use
type FlagService interface {
	Map(ctx context.Context) (map[string]bool, error)
	List(ctx context.Context) ([]*model.FeatureFlag, error)
	Get(ctx context.Context, key string) (*model.FeatureFlag, error)
	Create(ctx context.Context, req *model.CreateFlagRequest) (*model.FeatureFlag, error)
	Update(ctx context.Context, key string, req *model.UpdateFlagRequest) (*model.FeatureFlag, error)
	Toggle(ctx context.Context, key string) (*model.FeatureFlag, error)
	Delete(ctx context.Context, key string) error
}

// FlagHandler handles feature flags
type FlagHandler struct {
	svc FlagService
}

// NewFlagHandler creates a new flag handler
func NewFlagHandler(svc FlagService) *FlagHandler {
	return &FlagHandler{svc: svc}
}

// Map handles GET /v1/flags - key to enabled for clients
func (h *FlagHandler) Map(w http.ResponseWriter, r *http.Request) {
	flags, err := h.svc.Map(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, flags, nil)
}

// List handles GET /v1/admin/flags
func (h *FlagHandler) List(w http.ResponseWriter, r *http.Request) {
	flags, err := h.svc.List(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, flags, nil)
}

// Get handles GET /v1/admin/flags/{key}
func (h *FlagHandler) Get(w http.ResponseWriter, r *http.Request) {
	flag, err := h.svc.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, flag, nil)
}

// Create handles POST /v1/admin/flags
func (h *FlagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateFlagRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	flag, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusCreated, flag, map[string]string{"self": "/v1/admin/flags/" + flag.Key})
}

// Update handles PATCH /v1/admin/flags/{key}
func (h *FlagHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateFlagRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	flag, err := h.svc.Update(r.Context(), r.PathValue("key"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, flag, nil)
}

// Toggle handles POST /v1/admin/flags/{key}/toggle
func (h *FlagHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	flag, err := h.svc.Toggle(r.Context(), r.PathValue("key"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, flag, nil)
}

// Delete handles DELETE /v1/admin/flags/{key}
func (h *FlagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("key")); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteNoContent(w)
}
