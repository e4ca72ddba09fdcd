package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
)

// DiningEventRepository handles dining event data access
type DiningEventRepository struct {
	db database.Database
}

// NewDiningEventRepository creates a new dining event repository
func NewDiningEventRepository(db database.Database) *DiningEventRepository {
	return &DiningEventRepository{db: db}
}

// Create creates a new event
func (r *DiningEventRepository) Create(ctx context.Context, event *model.DiningEvent) error {
	query := `
		CREATE dining_event CONTENT {
			restaurant_id: $restaurant_id,
			city: $city,
			title: $title,
			description: IF $description IS NOT NULL THEN $description ELSE NONE END,
			start_time: <datetime>$start_time,
			end_time: <datetime>$end_time,
			price: $price,
			currency: $currency,
			capacity: $capacity,
			seats_sold: 0,
			image_url: IF $image_url IS NOT NULL THEN $image_url ELSE NONE END,
			menu_item_ids: $menu_item_ids,
			status: $status,
			created_by: $created_by,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	menuIDs := event.MenuItemIDs
	if menuIDs == nil {
		menuIDs = []string{}
	}
	vars := map[string]interface{}{
		"restaurant_id": event.RestaurantID,
		"city":          event.City,
		"title":         event.Title,
		"description":   ptrToNone(event.Description),
		"start_time":    datetime(event.StartTime),
		"end_time":      datetime(event.EndTime),
		"price":         event.Price,
		"currency":      event.Currency,
		"capacity":      event.Capacity,
		"image_url":     ptrToNone(event.ImageURL),
		"menu_item_ids": menuIDs,
		"status":        event.Status,
		"created_by":    event.CreatedBy,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}
	event.ID = created.ID
	event.SeatsSold = 0
	event.CreatedOn = created.CreatedOn
	event.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves an event
func (r *DiningEventRepository) GetByID(ctx context.Context, id string) (*model.DiningEvent, error) {
	query := `SELECT * FROM type::record($id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[model.DiningEvent](result)
}

// List returns events ordered by start time. Unless IncludeAll is set only
// published events starting after now are returned.
func (r *DiningEventRepository) List(ctx context.Context, filter model.DiningEventFilter, now time.Time) ([]*model.DiningEvent, bool, error) {
	var conds []string
	vars := map[string]interface{}{}

	if !filter.IncludeAll {
		conds = append(conds, "status = $status", "start_time > <datetime>$now")
		vars["status"] = model.EventStatusPublished
		vars["now"] = datetime(now)
	}
	if filter.City != "" {
		conds = append(conds, "string::lowercase(city) = string::lowercase($city)")
		vars["city"] = filter.City
	}
	if filter.RestaurantID != "" {
		conds = append(conds, "restaurant_id = $restaurant_id")
		vars["restaurant_id"] = filter.RestaurantID
	}
	if filter.From != nil {
		conds = append(conds, "start_time >= <datetime>$from")
		vars["from"] = datetime(*filter.From)
	}
	if filter.To != nil {
		conds = append(conds, "start_time < <datetime>$to")
		vars["to"] = datetime(*filter.To)
	}
	if filter.MaxPrice != nil {
		conds = append(conds, "price <= $max_price")
		vars["max_price"] = *filter.MaxPrice
	}

	query := `SELECT * FROM dining_event`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY start_time LIMIT $limit START $offset`
	pageVars(vars, filter.Page.Limit, filter.Page.Offset)

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list events: %w", err)
	}

	events, err := decodeRecords[model.DiningEvent](result)
	if err != nil {
		return nil, false, err
	}
	events, more := trimPage(events, filter.Page.Limit)
	return events, more, nil
}

// Update applies a partial update
func (r *DiningEventRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.DiningEvent, error) {
	return updateRecord[model.DiningEvent](ctx, r.db, id, updates)
}

// CountUpcomingPublished counts published events of a restaurant that have not started
func (r *DiningEventRepository) CountUpcomingPublished(ctx context.Context, restaurantID string, now time.Time) (int, error) {
	query := `
		SELECT count() as cnt FROM dining_event
		WHERE restaurant_id = $restaurant_id AND status = $status AND start_time > <datetime>$now
		GROUP ALL
	`
	vars := map[string]interface{}{
		"restaurant_id": restaurantID,
		"status":        model.EventStatusPublished,
		"now":           datetime(now),
	}
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return 0, err
	}
	return extractCount(result), nil
}

// CompleteFinished marks published events that ended before now as completed
func (r *DiningEventRepository) CompleteFinished(ctx context.Context, now time.Time) (int, error) {
	query := `
		UPDATE dining_event SET status = $completed, updated_on = time::now()
		WHERE status = $published AND end_time < <datetime>$now
		RETURN id
	`
	vars := map[string]interface{}{
		"completed": model.EventStatusCompleted,
		"published": model.EventStatusPublished,
		"now":       datetime(now),
	}
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return 0, err
	}
	return len(statementRows(result, 0)), nil
}
