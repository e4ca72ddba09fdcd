package handler

import (
	"context"
	"net/http"

	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/service"
)

// MembershipService is the part of service.MembershipService the endpoints use
type MembershipService interface {
	CreatePlan(ctx context.Context, req *model.CreatePlanRequest) (*model.MembershipPlan, error)
	GetPlan(ctx context.Context, id string, includeInactive bool) (*model.MembershipPlan, error)
	ListPlans(ctx context.Context, activeOnly bool) ([]*model.MembershipPlan, error)
	UpdatePlan(ctx context.Context, id string, req *model.UpdatePlanRequest) (*model.MembershipPlan, error)
	RetirePlan(ctx context.Context, id string) (*model.MembershipPlan, error)
	Subscribe(ctx context.Context, actor service.Actor, req *model.SubscribeRequest) (*model.SubscribeResult, error)
	Mine(ctx context.Context, actor service.Actor) ([]*model.Membership, error)
	Cancel(ctx context.Context, actor service.Actor, id string) (*model.Membership, error)
	Resume(ctx context.Context, actor service.Actor, id string) (*model.Membership, error)
}

// MembershipHandler handles membership plans and subscriptions
type MembershipHandler struct {
	svc MembershipService
}

// NewMembershipHandler creates a new membership handler
func NewMembershipHandler(svc MembershipService) *MembershipHandler {
	return &MembershipHandler{svc: svc}
}

// ListPlans handles GET /v1/plans. Admins may pass ?all=true to include retired plans.
func (h *MembershipHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	viewer := optionalActor(r)
	activeOnly := !(viewer != nil && viewer.IsAdmin() && r.URL.Query().Get("all") == "true")

	plans, err := h.svc.ListPlans(r.Context(), activeOnly)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, plans, nil)
}

// ListAllPlans handles GET /v1/admin/plans, retired plans included
func (h *MembershipHandler) ListAllPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.ListPlans(r.Context(), false)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, plans, nil)
}

// GetPlan handles GET /v1/plans/{planId}
func (h *MembershipHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	viewer := optionalActor(r)
	plan, err := h.svc.GetPlan(r.Context(), r.PathValue("planId"), viewer != nil && viewer.IsAdmin())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, plan, nil)
}

// CreatePlan handles POST /v1/admin/plans
func (h *MembershipHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePlanRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	plan, err := h.svc.CreatePlan(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusCreated, plan, map[string]string{"self": "/v1/plans/" + plan.ID})
}

// UpdatePlan handles PATCH /v1/admin/plans/{planId}
func (h *MembershipHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	var req model.UpdatePlanRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	plan, err := h.svc.UpdatePlan(r.Context(), r.PathValue("planId"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, plan, nil)
}

// RetirePlan handles DELETE /v1/admin/plans/{planId}. The plan record stays
// so existing memberships still resolve it.
func (h *MembershipHandler) RetirePlan(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.RetirePlan(r.Context(), r.PathValue("planId")); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteNoContent(w)
}

// Subscribe handles POST /v1/memberships
func (h *MembershipHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req model.SubscribeRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	result, err := h.svc.Subscribe(r.Context(), actor, &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	links := map[string]string{
		"payment": "/v1/payments/" + result.Payment.ID,
		"verify":  "/v1/payments/" + result.Payment.ID + "/verify",
	}
	if result.AuthorizeURI != "" {
		links["authorize"] = result.AuthorizeURI
	}
	WriteData(w, http.StatusCreated, result, links)
}

// Mine handles GET /v1/memberships/mine
func (h *MembershipHandler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	list, err := h.svc.Mine(r.Context(), actor)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, list, nil)
}

// Cancel handles POST /v1/memberships/{membershipId}/cancel.
// The membership stays active until the end of the paid period.
func (h *MembershipHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.setCancel(w, r, h.svc.Cancel)
}

// Resume handles POST /v1/memberships/{membershipId}/resume
func (h *MembershipHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.setCancel(w, r, h.svc.Resume)
}

func (h *MembershipHandler) setCancel(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, service.Actor, string) (*model.Membership, error)) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	membership, err := fn(r.Context(), actor, r.PathValue("membershipId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, membership, nil)
}
