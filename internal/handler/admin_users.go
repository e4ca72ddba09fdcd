package handler

import (
	"context"
	"net/http"

	"github.com/eatmeetclub/api/internal/model"
)

// UserAdminService is the part of service.AuthService the back-office uses
type UserAdminService interface {
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	ListUsers(ctx context.Context, role model.UserRole, page model.Page) ([]*model.User, bool, error)
	SetRole(ctx context.Context, userID string, req *model.UpdateUserRoleRequest) (*model.User, error)
}

// AdminUsersHandler handles admin user management endpoints
type AdminUsersHandler struct {
	usersService UserAdminService
}

// NewAdminUsersHandler creates a new admin users handler
func NewAdminUsersHandler(usersService UserAdminService) *AdminUsersHandler {
	return &AdminUsersHandler{usersService: usersService}
}

// ListUsers handles GET /v1/admin/users?role=
func (h *AdminUsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	role := model.UserRole(r.URL.Query().Get("role"))
	if role != "" && !role.Valid() {
		WriteError(w, model.NewValidationError([]model.FieldError{
			{Field: "role", Message: "role must be member, restaurant or admin"},
		}))
		return
	}

	page := ParsePage(r)
	users, hasMore, err := h.usersService.ListUsers(r.Context(), role, page)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list users"))
		return
	}

	WriteCollection(w, http.StatusOK, users, NewPagination(page, hasMore), nil)
}

// GetUser handles GET /v1/admin/users/{userId}
func (h *AdminUsersHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		WriteError(w, model.NewBadRequestError("userId is required"))
		return
	}

	user, err := h.usersService.GetUserByID(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, user, nil)
}

// UpdateRole handles PATCH /v1/admin/users/{userId}/role.
// The user's sessions are revoked so the new role applies on next login.
func (h *AdminUsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateUserRoleRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	user, err := h.usersService.SetRole(r.Context(), r.PathValue("userId"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, user, nil)
}
