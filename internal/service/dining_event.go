package service

import (
	"context"
	"strings"
	"time"

	"github.com/eatmeetclub/api/internal/model"
)

// DiningEventRepository defines the interface for dining event storage
type DiningEventRepository interface {
	Create(ctx context.Context, event *model.DiningEvent) error
	GetByID(ctx context.Context, id string) (*model.DiningEvent, error)
	List(ctx context.Context, filter model.DiningEventFilter, now time.Time) ([]*model.DiningEvent, bool, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) (*model.DiningEvent, error)
	CountUpcomingPublished(ctx context.Context, restaurantID string, now time.Time) (int, error)
	CompleteFinished(ctx context.Context, now time.Time) (int, error)
}

// MenuLookup checks menu item ownership
type MenuLookup interface {
	CountInRestaurant(ctx context.Context, restaurantID string, ids []string) (int, error)
}

// DiningEventService schedules and publishes dining events
type DiningEventService struct {
	repo            DiningEventRepository
	restaurants     RestaurantReader
	menu            MenuLookup
	defaultCurrency string
	now             func() time.Time
}

// DiningEventServiceConfig holds configuration for the dining event service
type DiningEventServiceConfig struct {
	Repo            DiningEventRepository
	Restaurants     RestaurantReader
	Menu            MenuLookup
	DefaultCurrency string
	Now             func() time.Time
}

// NewDiningEventService creates a new dining event service
func NewDiningEventService(cfg DiningEventServiceConfig) *DiningEventService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "thb"
	}
	return &DiningEventService{
		repo:            cfg.Repo,
		restaurants:     cfg.Restaurants,
		menu:            cfg.Menu,
		defaultCurrency: cfg.DefaultCurrency,
		now:             cfg.Now,
	}
}

// Create schedules a draft event at a restaurant the actor owns
func (s *DiningEventService) Create(ctx context.Context, actor Actor, restaurantID string, req *model.CreateDiningEventRequest) (*model.DiningEvent, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	restaurant, err := loadOwnedRestaurant(ctx, s.restaurants, actor, restaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant.Status != model.RestaurantStatusActive {
		return nil, ErrRestaurantInactive
	}
	if !req.StartTime.After(s.now()) {
		return nil, ErrEventInPast
	}

	menuIDs := uniqueStrings(req.MenuItemIDs)
	if err := s.checkMenuItems(ctx, restaurantID, menuIDs); err != nil {
		return nil, err
	}

	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = s.defaultCurrency
	}

	event := &model.DiningEvent{
		RestaurantID: restaurantID,
		City:         restaurant.City,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		StartTime:    req.StartTime.UTC(),
		EndTime:      req.EndTime.UTC(),
		Price:        req.Price,
		Currency:     currency,
		Capacity:     req.Capacity,
		ImageURL:     req.ImageURL,
		MenuItemIDs:  menuIDs,
		Status:       model.EventStatusDraft,
		CreatedBy:    actor.UserID,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Get returns an event. Drafts are only visible to the restaurant owner and admins.
func (s *DiningEventService) Get(ctx context.Context, viewer *Actor, id string) (*model.DiningEvent, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if event.Status == model.EventStatusDraft {
		if viewer == nil {
			return nil, ErrEventNotFound
		}
		if _, err := loadOwnedRestaurant(ctx, s.restaurants, *viewer, event.RestaurantID); err != nil {
			return nil, ErrEventNotFound
		}
	}
	return event, nil
}

// Discover lists published upcoming events
func (s *DiningEventService) Discover(ctx context.Context, filter model.DiningEventFilter) ([]*model.DiningEvent, bool, error) {
	filter.IncludeAll = false
	filter.Page = filter.Page.Normalize()
	return s.repo.List(ctx, filter, s.now())
}

// ListForRestaurant lists every event of a restaurant the actor owns, drafts included
func (s *DiningEventService) ListForRestaurant(ctx context.Context, actor Actor, restaurantID string, page model.Page) ([]*model.DiningEvent, bool, error) {
	if _, err := loadOwnedRestaurant(ctx, s.restaurants, actor, restaurantID); err != nil {
		return nil, false, err
	}
	filter := model.DiningEventFilter{
		RestaurantID: restaurantID,
		IncludeAll:   true,
		Page:         page.Normalize(),
	}
	return s.repo.List(ctx, filter, s.now())
}

// Update changes an event that is not cancelled or completed
func (s *DiningEventService) Update(ctx context.Context, actor Actor, id string, req *model.UpdateDiningEventRequest) (*model.DiningEvent, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	event, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := checkMutable(event); err != nil {
		return nil, err
	}

	start, end := event.StartTime, event.EndTime
	if req.StartTime != nil {
		start = req.StartTime.UTC()
	}
	if req.EndTime != nil {
		end = req.EndTime.UTC()
	}
	if !end.After(start) {
		return nil, NewValidationError([]model.FieldError{{Field: "end_time", Message: "end_time must be after start_time"}})
	}
	if req.StartTime != nil && !start.After(s.now()) {
		return nil, ErrEventInPast
	}
	if req.Capacity != nil && *req.Capacity < event.SeatsSold {
		return nil, ErrCapacityTooSmall
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.StartTime != nil {
		updates["start_time"] = start
	}
	if req.EndTime != nil {
		updates["end_time"] = end
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Capacity != nil {
		updates["capacity"] = *req.Capacity
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.MenuItemIDs != nil {
		ids := uniqueStrings(req.MenuItemIDs)
		if err := s.checkMenuItems(ctx, event.RestaurantID, ids); err != nil {
			return nil, err
		}
		updates["menu_item_ids"] = ids
	}

	return s.save(ctx, id, updates)
}

// Publish moves a draft to published so tickets go on sale
func (s *DiningEventService) Publish(ctx context.Context, actor Actor, id string) (*model.DiningEvent, error) {
	event, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if event.Status != model.EventStatusDraft {
		return nil, ErrEventNotDraft
	}
	if !event.IsUpcoming(s.now()) {
		return nil, ErrEventInPast
	}
	return s.save(ctx, id, map[string]interface{}{"status": model.EventStatusPublished})
}

// Cancel stops an event. Completed events cannot be cancelled.
func (s *DiningEventService) Cancel(ctx context.Context, actor Actor, id string) (*model.DiningEvent, error) {
	event, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := checkMutable(event); err != nil {
		return nil, err
	}
	return s.save(ctx, id, map[string]interface{}{"status": model.EventStatusCancelled})
}

// CompleteFinished marks events that have ended as completed
func (s *DiningEventService) CompleteFinished(ctx context.Context) (int, error) {
	return s.repo.CompleteFinished(ctx, s.now())
}

func (s *DiningEventService) loadManaged(ctx context.Context, actor Actor, id string) (*model.DiningEvent, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if _, err := loadOwnedRestaurant(ctx, s.restaurants, actor, event.RestaurantID); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *DiningEventService) save(ctx context.Context, id string, updates map[string]interface{}) (*model.DiningEvent, error) {
	event, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *DiningEventService) checkMenuItems(ctx context.Context, restaurantID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := s.menu.CountInRestaurant(ctx, restaurantID, ids)
	if err != nil {
		return err
	}
	if n != len(ids) {
		return ErrMenuItemNotInMenu
	}
	return nil
}

func checkMutable(event *model.DiningEvent) error {
	switch event.Status {
	case model.EventStatusCompleted:
		return ErrEventCompleted
	case model.EventStatusCancelled:
		return ErrEventCancelled
	}
	return nil
}

func uniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
