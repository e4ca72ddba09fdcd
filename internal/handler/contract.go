package handler

import (
	"context"
	"net/http"

	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/service"
)

// ContractService is the part of service.ContractService the endpoints use
type ContractService interface {
	Create(ctx context.Context, actor service.Actor, req *model.CreateContractRequest) (*model.Contract, error)
	Get(ctx context.Context, actor service.Actor, id string) (*model.Contract, error)
	List(ctx context.Context, actor service.Actor, restaurantID, status string) ([]*model.Contract, error)
	Send(ctx context.Context, id string) (*model.Contract, error)
	Sign(ctx context.Context, actor service.Actor, id string, req *model.SignContractRequest) (*model.Contract, error)
	Void(ctx context.Context, id string) (*model.Contract, error)
}

// ContractHandler handles restaurant partnership contracts
type ContractHandler struct {
	svc ContractService
}

// NewContractHandler creates a new contract handler
func NewContractHandler(svc ContractService) *ContractHandler {
	return &ContractHandler{svc: svc}
}

// Create handles POST /v1/admin/contracts
func (h *ContractHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req model.CreateContractRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	contract, err := h.svc.Create(r.Context(), actor, &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusCreated, contract, map[string]string{"self": "/v1/contracts/" + contract.ID})
}

// List handles GET /v1/contracts?restaurant_id=&status=.
// Restaurant owners must pass a restaurant they own.
func (h *ContractHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	contracts, err := h.svc.List(r.Context(), actor, q.Get("restaurant_id"), q.Get("status"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, contracts, nil)
}

// Get handles GET /v1/contracts/{contractId}
func (h *ContractHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	contract, err := h.svc.Get(r.Context(), actor, r.PathValue("contractId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, contract, nil)
}

// Send handles POST /v1/admin/contracts/{contractId}/send
func (h *ContractHandler) Send(w http.ResponseWriter, r *http.Request) {
	contract, err := h.svc.Send(r.Context(), r.PathValue("contractId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, contract, nil)
}

// Void handles POST /v1/admin/contracts/{contractId}/void
func (h *ContractHandler) Void(w http.ResponseWriter, r *http.Request) {
	contract, err := h.svc.Void(r.Context(), r.PathValue("contractId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, contract, nil)
}

// Sign handles POST /v1/contracts/{contractId}/sign by the restaurant owner
func (h *ContractHandler) Sign(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req model.SignContractRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	contract, err := h.svc.Sign(r.Context(), actor, r.PathValue("contractId"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, contract, nil)
}
