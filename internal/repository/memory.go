package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
)

// MemoryRepository handles event memory data access
type MemoryRepository struct {
	db database.Database
}

// NewMemoryRepository creates a new memory repository
func NewMemoryRepository(db database.Database) *MemoryRepository {
	return &MemoryRepository{db: db}
}

// Create stores a memory
func (r *MemoryRepository) Create(ctx context.Context, m *model.Memory) error {
	query := `
		CREATE memory CONTENT {
			event_id: $event_id,
			author_id: $author_id,
			caption: $caption,
			image_url: $image_url,
			created_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"event_id":  m.EventID,
		"author_id": m.AuthorID,
		"caption":   m.Caption,
		"image_url": m.ImageURL,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create memory: %w", err)
	}
	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}
	m.ID = created.ID
	m.CreatedOn = created.CreatedOn
	return nil
}

// GetByID retrieves a memory
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*model.Memory, error) {
	result, err := r.db.QueryOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[model.Memory](result)
}

// ListByEvent returns an event's memories newest first
func (r *MemoryRepository) ListByEvent(ctx context.Context, eventID string, page model.Page) ([]*model.Memory, bool, error) {
	query := `
		SELECT * FROM memory
		WHERE event_id = $event_id
		ORDER BY created_on DESC
		LIMIT $limit START $offset
	`
	vars := map[string]interface{}{"event_id": eventID}
	pageVars(vars, page.Limit, page.Offset)

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list memories: %w", err)
	}
	memories, err := decodeRecords[model.Memory](result)
	if err != nil {
		return nil, false, err
	}
	memories, more := trimPage(memories, page.Limit)
	return memories, more, nil
}

// Delete removes a memory
func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	return r.db.Execute(ctx, `DELETE type::record($id)`, map[string]interface{}{"id": id})
}
