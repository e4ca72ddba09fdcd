package service

import (
	"context"
	"strings"
	"time"

	"github.com/eatmeetclub/api/internal/model"
)

// MemoryRepository defines the interface for memory storage
type MemoryRepository interface {
	Create(ctx context.Context, m *model.Memory) error
	GetByID(ctx context.Context, id string) (*model.Memory, error)
	ListByEvent(ctx context.Context, eventID string, page model.Page) ([]*model.Memory, bool, error)
	Delete(ctx context.Context, id string) error
}

// PaidTicketChecker reports whether a user attended an event
type PaidTicketChecker interface {
	HasPaidTicket(ctx context.Context, userID, eventID string) (bool, error)
}

// MemoryService lets guests share photos and stories of events they attended
type MemoryService struct {
	repo        MemoryRepository
	events      EventReader
	tickets     PaidTicketChecker
	restaurants RestaurantReader
	now         func() time.Time
}

// MemoryServiceConfig holds configuration for the memory service
type MemoryServiceConfig struct {
	Repo        MemoryRepository
	Events      EventReader
	Tickets     PaidTicketChecker
	Restaurants RestaurantReader
	Now         func() time.Time
}

// NewMemoryService creates a new memory service
func NewMemoryService(cfg MemoryServiceConfig) *MemoryService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &MemoryService{
		repo:        cfg.Repo,
		events:      cfg.Events,
		tickets:     cfg.Tickets,
		restaurants: cfg.Restaurants,
		now:         cfg.Now,
	}
}

// Create shares a memory of an event that has started. The author needs a
// paid ticket unless they host the event or are an admin.
func (s *MemoryService) Create(ctx context.Context, actor Actor, eventID string, req *model.CreateMemoryRequest) (*model.Memory, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil || event.Status == model.EventStatusDraft {
		return nil, ErrEventNotFound
	}
	if event.Status == model.EventStatusCancelled {
		return nil, ErrEventCancelled
	}
	if event.IsUpcoming(s.now()) {
		return nil, ErrEventNotStarted
	}

	if err := s.checkAttended(ctx, actor, event); err != nil {
		return nil, err
	}

	memory := &model.Memory{
		EventID:  event.ID,
		AuthorID: actor.UserID,
		Caption:  strings.TrimSpace(req.Caption),
		ImageURL: req.ImageURL,
	}
	if err := s.repo.Create(ctx, memory); err != nil {
		return nil, err
	}
	return memory, nil
}

// ListByEvent returns an event's memories, newest first
func (s *MemoryService) ListByEvent(ctx context.Context, eventID string, page model.Page) ([]*model.Memory, bool, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, false, err
	}
	if event == nil || event.Status == model.EventStatusDraft {
		return nil, false, ErrEventNotFound
	}
	return s.repo.ListByEvent(ctx, eventID, page.Normalize())
}

// Delete removes a memory. Only its author or an admin may do so.
func (s *MemoryService) Delete(ctx context.Context, actor Actor, id string) error {
	memory, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if memory == nil {
		return ErrMemoryNotFound
	}
	if memory.AuthorID != actor.UserID && !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

func (s *MemoryService) checkAttended(ctx context.Context, actor Actor, event *model.DiningEvent) error {
	if actor.IsAdmin() {
		return nil
	}
	restaurant, err := s.restaurants.GetByID(ctx, event.RestaurantID)
	if err != nil {
		return err
	}
	if restaurant != nil && restaurant.IsOwnedBy(actor.UserID) {
		return nil
	}
	paid, err := s.tickets.HasPaidTicket(ctx, actor.UserID, event.ID)
	if err != nil {
		return err
	}
	if !paid {
		return ErrMemoryNotAllowed
	}
	return nil
}
