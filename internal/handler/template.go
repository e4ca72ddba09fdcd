package handler

import (
	"context"
	"net/http"

	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/service"
)

// TemplateService is the part of service.TemplateService the endpoints use
type TemplateService interface {
	Create(ctx context.Context, actor service.Actor, req *model.CreateTemplateRequest) (*model.Template, error)
	Get(ctx context.Context, id string) (*model.Template, error)
	List(ctx context.Context, kind string) ([]*model.Template, error)
	Update(ctx context.Context, id string, req *model.UpdateTemplateRequest) (*model.Template, error)
	Delete(ctx context.Context, id string) error
	Render(ctx context.Context, id string, vars map[string]any) (*model.RenderedTemplate, error)
}

// TemplateHandler handles admin message and contract templates
type TemplateHandler struct {
	svc TemplateService
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(svc TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// List handles GET /v1/admin/templates?kind=
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.svc.List(r.Context(), r.URL.Query().Get("kind"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, templates, nil)
}

// Get handles GET /v1/admin/templates/{templateId}
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	tmpl, err := h.svc.Get(r.Context(), r.PathValue("templateId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, tmpl, templateLinks(tmpl.ID))
}

// Create handles POST /v1/admin/templates
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req model.CreateTemplateRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	tmpl, err := h.svc.Create(r.Context(), actor, &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusCreated, tmpl, templateLinks(tmpl.ID))
}

// Update handles PATCH /v1/admin/templates/{templateId}
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateTemplateRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	tmpl, err := h.svc.Update(r.Context(), r.PathValue("templateId"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, tmpl, templateLinks(tmpl.ID))
}

// Delete handles DELETE /v1/admin/templates/{templateId}
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("templateId")); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteNoContent(w)
}

// Render handles POST /v1/admin/templates/{templateId}/render - a preview
func (h *TemplateHandler) Render(w http.ResponseWriter, r *http.Request) {
	var req model.RenderRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	rendered, err := h.svc.Render(r.Context(), r.PathValue("templateId"), req.Vars)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, rendered, nil)
}

func templateLinks(id string) map[string]string {
	return map[string]string{
		"self":   "/v1/admin/templates/" + id,
		"render": "/v1/admin/templates/" + id + "/render",
	}
}
