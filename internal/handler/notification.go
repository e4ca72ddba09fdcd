package handler

import (
	"context"
	"net/http"

	"github.com/eatmeetclub/api/internal/model"
)

// NotificationService renders a template for a user and queues it
type NotificationService interface {
	SendTemplated(ctx context.Context, req *model.SendNotificationRequest) (*model.Notification, error)
}

// NotificationHandler lets admins message a user
type NotificationHandler struct {
	svc NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(svc NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// Send handles POST /v1/admin/notifications.
// Responds 202: delivery happens asynchronously in the notifier.
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req model.SendNotificationRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	notification, err := h.svc.SendTemplated(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusAccepted, notification, nil)
}
