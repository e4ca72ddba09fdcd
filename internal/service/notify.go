package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eatmeetclub/api/internal/model"
)

// Publisher queues a notification for the notifier worker
type Publisher interface {
	Publish(ctx context.Context, n *model.Notification) error
}

// UserReader looks users up by id
type UserReader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// TemplateRenderer executes a stored template
type TemplateRenderer interface {
	Render(ctx context.Context, id string, vars map[string]any) (*model.RenderedTemplate, error)
}

// NotificationService queues email and SMS messages
type NotificationService struct {
	publisher Publisher
	users     UserReader
	templates TemplateRenderer
}

// NewNotificationService creates a new notification service
func NewNotificationService(publisher Publisher, users UserReader, templates TemplateRenderer) *NotificationService {
	return &NotificationService{
		publisher: publisher,
		users:     users,
		templates: templates,
	}
}

// Send validates and queues a notification
func (s *NotificationService) Send(ctx context.Context, n *model.Notification) error {
	if err := NewValidationError(n.Validate()); err != nil {
		return err
	}
	return s.publisher.Publish(ctx, n)
}

// Email queues a plain email. Failures are logged, not returned, so a
// notification never fails the operation that triggered it.
func (s *NotificationService) Email(ctx context.Context, to, subject, body string) {
	if s == nil {
		return
	}
	n := &model.Notification{
		Channel: model.ChannelEmail,
		To:      to,
		Subject: subject,
		Body:    body,
	}
	if err := s.Send(ctx, n); err != nil {
		slog.Error("failed to queue email",
			slog.String("to", to),
			slog.String("subject", subject),
			slog.String("error", err.Error()))
	}
}

// SendTemplated renders an email or SMS template and queues it for a user
func (s *NotificationService) SendTemplated(ctx context.Context, req *model.SendNotificationRequest) (*model.Notification, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	vars := map[string]any{
		"Firstname": user.Firstname,
		"Lastname":  user.Lastname,
		"Name":      user.DisplayName(),
		"Email":     user.Email,
	}
	for k, v := range req.Vars {
		vars[k] = v
	}

	rendered, err := s.templates.Render(ctx, req.TemplateID, vars)
	if err != nil {
		return nil, err
	}

	templateID := req.TemplateID
	n := &model.Notification{
		Subject:  rendered.Subject,
		Body:     rendered.Body,
		Template: &templateID,
	}
	switch rendered.Kind {
	case model.TemplateKindEmail:
		n.Channel = model.ChannelEmail
		n.To = user.Email
	case model.TemplateKindSMS:
		if user.Phone == nil || *user.Phone == "" {
			return nil, NewValidationError([]model.FieldError{{Field: "user_id", Message: "user has no phone number"}})
		}
		n.Channel = model.ChannelSMS
		n.To = *user.Phone
	default:
		return nil, ErrTemplateWrongKind
	}

	if err := s.Send(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to queue notification: %w", err)
	}
	return n, nil
}
