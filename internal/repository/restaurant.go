package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
)

// RestaurantRepository handles restaurant data access
type RestaurantRepository struct {
	db database.Database
}

// NewRestaurantRepository creates a new restaurant repository
func NewRestaurantRepository(db database.Database) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

// Create creates a new restaurant
func (r *RestaurantRepository) Create(ctx context.Context, restaurant *model.Restaurant) error {
	query := `
		CREATE restaurant CONTENT {
			owner_id: $owner_id,
			name: $name,
			description: IF $description IS NOT NULL THEN $description ELSE NONE END,
			cuisine: $cuisine,
			address: $address,
			city: $city,
			phone: IF $phone IS NOT NULL THEN $phone ELSE NONE END,
			website: IF $website IS NOT NULL THEN $website ELSE NONE END,
			image_url: IF $image_url IS NOT NULL THEN $image_url ELSE NONE END,
			status: $status,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"owner_id":    restaurant.OwnerID,
		"name":        restaurant.Name,
		"description": ptrToNone(restaurant.Description),
		"cuisine":     restaurant.Cuisine,
		"address":     restaurant.Address,
		"city":        restaurant.City,
		"phone":       ptrToNone(restaurant.Phone),
		"website":     ptrToNone(restaurant.Website),
		"image_url":   ptrToNone(restaurant.ImageURL),
		"status":      restaurant.Status,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create restaurant: %w", err)
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}
	restaurant.ID = created.ID
	restaurant.CreatedOn = created.CreatedOn
	restaurant.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a restaurant by ID
func (r *RestaurantRepository) GetByID(ctx context.Context, id string) (*model.Restaurant, error) {
	query := `SELECT * FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[model.Restaurant](result)
}

// List returns restaurants matching the filter ordered by name
func (r *RestaurantRepository) List(ctx context.Context, filter model.RestaurantFilter) ([]*model.Restaurant, bool, error) {
	var conds []string
	vars := map[string]interface{}{}

	if filter.City != "" {
		conds = append(conds, "string::lowercase(city) = string::lowercase($city)")
		vars["city"] = filter.City
	}
	if filter.Cuisine != "" {
		conds = append(conds, "string::lowercase(cuisine) = string::lowercase($cuisine)")
		vars["cuisine"] = filter.Cuisine
	}
	if filter.Status != "" {
		conds = append(conds, "status = $status")
		vars["status"] = filter.Status
	}
	if filter.OwnerID != "" {
		conds = append(conds, "owner_id = $owner_id")
		vars["owner_id"] = filter.OwnerID
	}

	query := `SELECT * FROM restaurant`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY name LIMIT $limit START $offset`
	pageVars(vars, filter.Page.Limit, filter.Page.Offset)

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list restaurants: %w", err)
	}

	items, err := decodeRecords[model.Restaurant](result)
	if err != nil {
		return nil, false, err
	}
	items, more := trimPage(items, filter.Page.Limit)
	return items, more, nil
}

// Update applies a partial update and returns the new state
func (r *RestaurantRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.Restaurant, error) {
	return updateRecord[model.Restaurant](ctx, r.db, id, updates)
}

// Delete removes a restaurant and its menu items
func (r *RestaurantRepository) Delete(ctx context.Context, id string) error {
	vars := map[string]interface{}{"id": id}
	return database.NewBatch().
		Add(`DELETE menu_item WHERE restaurant_id = $id`, vars).
		Add(`DELETE type::record($id)`, vars).
		Run(ctx, r.db)
}
