package handler

import (
	"context"
	"net/http"

	"github.com/eatmeetclub/api/internal/model"
)

// SignupService is the part of service.SignupService the endpoints use
type SignupService interface {
	StartSignup(ctx context.Context, req *model.StartSignupRequest) (*model.SignupResult, error)
	GetSignup(ctx context.Context, id string) (*model.SignupIntent, error)
	RetrySignupPayment(ctx context.Context, id string, req *model.RetrySignupRequest) (*model.SignupResult, error)
}

// SignupHandler handles the paid membership signup wizard. The account is
// created only once the membership payment settles.
type SignupHandler struct {
	svc SignupService
}

// NewSignupHandler creates a new signup handler
func NewSignupHandler(svc SignupService) *SignupHandler {
	return &SignupHandler{svc: svc}
}

// Start handles POST /v1/signup
func (h *SignupHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req model.StartSignupRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	result, err := h.svc.StartSignup(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusCreated, result, signupLinks(result))
}

// Get handles GET /v1/signup/{signupId}
func (h *SignupHandler) Get(w http.ResponseWriter, r *http.Request) {
	intent, err := h.svc.GetSignup(r.Context(), r.PathValue("signupId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, intent, map[string]string{"self": "/v1/signup/" + intent.ID})
}

// Retry handles POST /v1/signup/{signupId}/retry
func (h *SignupHandler) Retry(w http.ResponseWriter, r *http.Request) {
	var req model.RetrySignupRequest
	if r.ContentLength != 0 {
		if err := DecodeJSON(r, &req); err != nil {
			WriteError(w, model.NewBadRequestError("invalid request body"))
			return
		}
	}

	result, err := h.svc.RetrySignupPayment(r.Context(), r.PathValue("signupId"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, result, signupLinks(result))
}

func signupLinks(result *model.SignupResult) map[string]string {
	links := map[string]string{"self": "/v1/signup/" + result.Signup.ID}
	if result.Payment != nil {
		links["verify"] = "/v1/payments/" + result.Payment.ID + "/verify"
	}
	if result.AuthorizeURI != "" {
		links["authorize"] = result.AuthorizeURI
	}
	return links
}
