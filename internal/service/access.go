package service

import (
	"context"

	"github.com/eatmeetclub/api/internal/model"
)

// Actor is the authenticated caller of a service method
type Actor struct {
	UserID string
	Role   model.UserRole
}

// IsAdmin reports whether the actor has the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == model.UserRoleAdmin
}

// RestaurantReader is the part of restaurant storage other services need
type RestaurantReader interface {
	GetByID(ctx context.Context, id string) (*model.Restaurant, error)
}

// loadOwnedRestaurant returns the restaurant if actor owns it or is an admin
func loadOwnedRestaurant(ctx context.Context, repo RestaurantReader, actor Actor, id string) (*model.Restaurant, error) {
	restaurant, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, ErrRestaurantNotFound
	}
	if !actor.IsAdmin() && !restaurant.IsOwnedBy(actor.UserID) {
		return nil, ErrNotOwner
	}
	return restaurant, nil
}
