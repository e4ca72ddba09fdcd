package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
)

// TemplateRepository handles template data access
type TemplateRepository struct {
	db database.Database
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db database.Database) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create stores a template. Names are unique.
func (r *TemplateRepository) Create(ctx context.Context, t *model.Template) error {
	query := `
		CREATE template CONTENT {
			name: $name,
			kind: $kind,
			subject: IF $subject IS NOT NULL THEN $subject ELSE NONE END,
			body: $body,
			created_by: $created_by,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"name":       t.Name,
		"kind":       t.Kind,
		"subject":    ptrToNone(t.Subject),
		"body":       t.Body,
		"created_by": t.CreatedBy,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}
	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}
	t.ID = created.ID
	t.CreatedOn = created.CreatedOn
	t.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a template
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*model.Template, error) {
	result, err := r.db.QueryOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[model.Template](result)
}

// List returns templates ordered by name, optionally of one kind
func (r *TemplateRepository) List(ctx context.Context, kind string) ([]*model.Template, error) {
	query := `SELECT * FROM template`
	vars := map[string]interface{}{}
	if kind != "" {
		query += ` WHERE kind = $kind`
		vars["kind"] = kind
	}
	query += ` ORDER BY name`

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return decodeRecords[model.Template](result)
}

// Update applies a partial update
func (r *TemplateRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.Template, error) {
	return updateRecord[model.Template](ctx, r.db, id, updates)
}

// Delete removes a template
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	return r.db.Execute(ctx, `DELETE type::record($id)`, map[string]interface{}{"id": id})
}
