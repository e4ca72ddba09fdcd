package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
)

// MenuRepository handles menu item data access
type MenuRepository struct {
	db database.Database
}

// NewMenuRepository creates a new menu repository
func NewMenuRepository(db database.Database) *MenuRepository {
	return &MenuRepository{db: db}
}

// Create adds a menu item
func (r *MenuRepository) Create(ctx context.Context, item *model.MenuItem) error {
	query := `
		CREATE menu_item CONTENT {
			restaurant_id: $restaurant_id,
			name: $name,
			description: IF $description IS NOT NULL THEN $description ELSE NONE END,
			price: $price,
			category: $category,
			dietary_tags: $dietary_tags,
			available: $available,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	tags := item.DietaryTags
	if tags == nil {
		tags = []string{}
	}
	vars := map[string]interface{}{
		"restaurant_id": item.RestaurantID,
		"name":          item.Name,
		"description":   ptrToNone(item.Description),
		"price":         item.Price,
		"category":      item.Category,
		"dietary_tags":  tags,
		"available":     item.Available,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create menu item: %w", err)
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}
	item.ID = created.ID
	item.DietaryTags = tags
	item.CreatedOn = created.CreatedOn
	item.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a menu item
func (r *MenuRepository) GetByID(ctx context.Context, id string) (*model.MenuItem, error) {
	query := `SELECT * FROM type::record($id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[model.MenuItem](result)
}

// ListByRestaurant returns a restaurant's menu ordered by category then name
func (r *MenuRepository) ListByRestaurant(ctx context.Context, restaurantID string, availableOnly bool) ([]*model.MenuItem, error) {
	query := `SELECT * FROM menu_item WHERE restaurant_id = $restaurant_id`
	if availableOnly {
		query += ` AND available = true`
	}
	query += ` ORDER BY category, name`

	result, err := r.db.Query(ctx, query, map[string]interface{}{"restaurant_id": restaurantID})
	if err != nil {
		return nil, fmt.Errorf("failed to list menu: %w", err)
	}
	return decodeRecords[model.MenuItem](result)
}

// CountInRestaurant counts how many of ids belong to the restaurant
func (r *MenuRepository) CountInRestaurant(ctx context.Context, restaurantID string, ids []string) (int, error) {
	query := `
		SELECT count() as cnt FROM menu_item
		WHERE restaurant_id = $restaurant_id AND <string>id IN $ids
		GROUP ALL
	`
	vars := map[string]interface{}{
		"restaurant_id": restaurantID,
		"ids":           ids,
	}
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return 0, err
	}
	return extractCount(result), nil
}

// Update applies a partial update
func (r *MenuRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.MenuItem, error) {
	return updateRecord[model.MenuItem](ctx, r.db, id, updates)
}

// Delete removes a menu item
func (r *MenuRepository) Delete(ctx context.Context, id string) error {
	return r.db.Execute(ctx, `DELETE type::record($id)`, map[string]interface{}{"id": id})
}
