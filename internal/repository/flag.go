package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
)

// FlagRepository handles feature flag data access
type FlagRepository struct {
	db database.Database
}

// NewFlagRepository creates a new flag repository
func NewFlagRepository(db database.Database) *FlagRepository {
	return &FlagRepository{db: db}
}

// Create stores a flag. Keys are unique.
func (r *FlagRepository) Create(ctx context.Context, f *model.FeatureFlag) error {
	query := `
		CREATE feature_flag CONTENT {
			key: $key,
			enabled: $enabled,
			description: IF $description IS NOT NULL THEN $description ELSE NONE END,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"key":         f.Key,
		"enabled":     f.Enabled,
		"description": ptrToNone(f.Description),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}
	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}
	f.ID = created.ID
	f.CreatedOn = created.CreatedOn
	f.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByKey retrieves a flag by key
func (r *FlagRepository) GetByKey(ctx context.Context, key string) (*model.FeatureFlag, error) {
	query := `SELECT * FROM feature_flag WHERE key = $key LIMIT 1`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"key": key})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[model.FeatureFlag](result)
}

// List returns all flags ordered by key
func (r *FlagRepository) List(ctx context.Context) ([]*model.FeatureFlag, error) {
	result, err := r.db.Query(ctx, `SELECT * FROM feature_flag ORDER BY key`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list flags: %w", err)
	}
	return decodeRecords[model.FeatureFlag](result)
}

// Update applies a partial update to the flag with key
func (r *FlagRepository) Update(ctx context.Context, key string, updates map[string]interface{}) (*model.FeatureFlag, error) {
	flag, err := r.GetByKey(ctx, key)
	if err != nil || flag == nil {
		return nil, err
	}
	return updateRecord[model.FeatureFlag](ctx, r.db, flag.ID, updates)
}

// Toggle flips a flag in place
func (r *FlagRepository) Toggle(ctx context.Context, key string) (*model.FeatureFlag, error) {
	query := `UPDATE feature_flag SET enabled = !enabled, updated_on = time::now() WHERE key = $key RETURN AFTER`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"key": key})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[model.FeatureFlag](result)
}

// Delete removes a flag
func (r *FlagRepository) Delete(ctx context.Context, key string) error {
	return r.db.Execute(ctx, `DELETE feature_flag WHERE key = $key`, map[string]interface{}{"key": key})
}
