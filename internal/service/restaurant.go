package service

import (
	"context"
	"strings"
	"time"

	"github.com/eatmeetclub/api/internal/model"
)

// RestaurantRepository defines the interface for restaurant storage
type RestaurantRepository interface {
	Create(ctx context.Context, restaurant *model.Restaurant) error
	GetByID(ctx context.Context, id string) (*model.Restaurant, error)
	List(ctx context.Context, filter model.RestaurantFilter) ([]*model.Restaurant, bool, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) (*model.Restaurant, error)
	Delete(ctx context.Context, id string) error
}

// UpcomingEventCounter reports whether a restaurant still hosts upcoming events
type UpcomingEventCounter interface {
	CountUpcomingPublished(ctx context.Context, restaurantID string, now time.Time) (int, error)
}

// RestaurantService handles restaurant listings
type RestaurantService struct {
	repo     RestaurantRepository
	userRepo UserRepository
	events   UpcomingEventCounter
	now      func() time.Time
}

// RestaurantServiceConfig holds configuration for the restaurant service
type RestaurantServiceConfig struct {
	Repo     RestaurantRepository
	UserRepo UserRepository
	Events   UpcomingEventCounter
	Now      func() time.Time
}

// NewRestaurantService creates a new restaurant service
func NewRestaurantService(cfg RestaurantServiceConfig) *RestaurantService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &RestaurantService{
		repo:     cfg.Repo,
		userRepo: cfg.UserRepo,
		events:   cfg.Events,
		now:      cfg.Now,
	}
}

// Create lists a new restaurant owned by the actor. Admins may name another owner.
func (s *RestaurantService) Create(ctx context.Context, actor Actor, req *model.CreateRestaurantRequest) (*model.Restaurant, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}

	ownerID := actor.UserID
	if req.OwnerID != nil && *req.OwnerID != "" && *req.OwnerID != actor.UserID {
		if !actor.IsAdmin() {
			return nil, ErrForbidden
		}
		owner, err := s.userRepo.GetByID(ctx, *req.OwnerID)
		if err != nil {
			return nil, err
		}
		if owner == nil {
			return nil, ErrUserNotFound
		}
		if !owner.HasRole(model.UserRoleRestaurant) {
			return nil, ErrOwnerMustBeRestaurant
		}
		ownerID = owner.ID
	}

	restaurant := &model.Restaurant{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Cuisine:     strings.TrimSpace(req.Cuisine),
		Address:     strings.TrimSpace(req.Address),
		City:        strings.TrimSpace(req.City),
		Phone:       req.Phone,
		Website:     req.Website,
		ImageURL:    req.ImageURL,
		Status:      model.RestaurantStatusActive,
	}
	if err := s.repo.Create(ctx, restaurant); err != nil {
		return nil, err
	}
	return restaurant, nil
}

// Get returns a restaurant by id
func (s *RestaurantService) Get(ctx context.Context, id string) (*model.Restaurant, error) {
	restaurant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, ErrRestaurantNotFound
	}
	return restaurant, nil
}

// List returns restaurants matching the filter
func (s *RestaurantService) List(ctx context.Context, filter model.RestaurantFilter) ([]*model.Restaurant, bool, error) {
	filter.Page = filter.Page.Normalize()
	return s.repo.List(ctx, filter)
}

// Update changes a restaurant owned by the actor
func (s *RestaurantService) Update(ctx context.Context, actor Actor, id string, req *model.UpdateRestaurantRequest) (*model.Restaurant, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	if _, err := loadOwnedRestaurant(ctx, s.repo, actor, id); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Cuisine != nil {
		updates["cuisine"] = strings.TrimSpace(*req.Cuisine)
	}
	if req.Address != nil {
		updates["address"] = strings.TrimSpace(*req.Address)
	}
	if req.City != nil {
		updates["city"] = strings.TrimSpace(*req.City)
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Website != nil {
		updates["website"] = *req.Website
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	restaurant, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, ErrRestaurantNotFound
	}
	return restaurant, nil
}

// Delete removes a restaurant and its menu. It refuses while published
// events are still to come.
func (s *RestaurantService) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := loadOwnedRestaurant(ctx, s.repo, actor, id); err != nil {
		return err
	}

	upcoming, err := s.events.CountUpcomingPublished(ctx, id, s.now())
	if err != nil {
		return err
	}
	if upcoming > 0 {
		return ErrRestaurantHasEvents
	}
	return s.repo.Delete(ctx, id)
}
