package service

import (
	"context"
	"strings"

	"github.com/eatmeetclub/api/internal/model"
)

// MenuRepository defines the interface for menu item storage
type MenuRepository interface {
	Create(ctx context.Context, item *model.MenuItem) error
	GetByID(ctx context.Context, id string) (*model.MenuItem, error)
	ListByRestaurant(ctx context.Context, restaurantID string, availableOnly bool) ([]*model.MenuItem, error)
	CountInRestaurant(ctx context.Context, restaurantID string, ids []string) (int, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) (*model.MenuItem, error)
	Delete(ctx context.Context, id string) error
}

// MenuService manages restaurant menus
type MenuService struct {
	repo        MenuRepository
	restaurants RestaurantReader
}

// NewMenuService creates a new menu service
func NewMenuService(repo MenuRepository, restaurants RestaurantReader) *MenuService {
	return &MenuService{repo: repo, restaurants: restaurants}
}

// List returns a restaurant's menu ordered by category then name
func (s *MenuService) List(ctx context.Context, restaurantID string, availableOnly bool) ([]*model.MenuItem, error) {
	restaurant, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, ErrRestaurantNotFound
	}
	return s.repo.ListByRestaurant(ctx, restaurantID, availableOnly)
}

// Create adds an item to a restaurant the actor owns
func (s *MenuService) Create(ctx context.Context, actor Actor, restaurantID string, req *model.CreateMenuItemRequest) (*model.MenuItem, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	if _, err := loadOwnedRestaurant(ctx, s.restaurants, actor, restaurantID); err != nil {
		return nil, err
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}
	item := &model.MenuItem{
		RestaurantID: restaurantID,
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Price:        req.Price,
		Category:     strings.TrimSpace(req.Category),
		DietaryTags:  normalizeTags(req.DietaryTags),
		Available:    available,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Update changes a menu item of a restaurant the actor owns
func (s *MenuService) Update(ctx context.Context, actor Actor, restaurantID, itemID string, req *model.UpdateMenuItemRequest) (*model.MenuItem, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	if _, err := s.loadItem(ctx, actor, restaurantID, itemID); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Category != nil {
		updates["category"] = strings.TrimSpace(*req.Category)
	}
	if req.DietaryTags != nil {
		updates["dietary_tags"] = normalizeTags(req.DietaryTags)
	}
	if req.Available != nil {
		updates["available"] = *req.Available
	}

	item, err := s.repo.Update(ctx, itemID, updates)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrMenuItemNotFound
	}
	return item, nil
}

// Delete removes a menu item of a restaurant the actor owns
func (s *MenuService) Delete(ctx context.Context, actor Actor, restaurantID, itemID string) error {
	if _, err := s.loadItem(ctx, actor, restaurantID, itemID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, itemID)
}

func (s *MenuService) loadItem(ctx context.Context, actor Actor, restaurantID, itemID string) (*model.MenuItem, error) {
	if _, err := loadOwnedRestaurant(ctx, s.restaurants, actor, restaurantID); err != nil {
		return nil, err
	}
	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.RestaurantID != restaurantID {
		return nil, ErrMenuItemNotFound
	}
	return item, nil
}

// normalizeTags lowercases, trims and de-duplicates dietary tags
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
