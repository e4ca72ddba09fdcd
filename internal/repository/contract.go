package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
)

// ContractRepository handles contract data access
type ContractRepository struct {
	db database.Database
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db database.Database) *ContractRepository {
	return &ContractRepository{db: db}
}

// Create stores a draft contract
func (r *ContractRepository) Create(ctx context.Context, c *model.Contract) error {
	query := `
		CREATE contract CONTENT {
			restaurant_id: $restaurant_id,
			template_id: $template_id,
			title: $title,
			body: $body,
			status: $status,
			created_by: $created_by,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"restaurant_id": c.RestaurantID,
		"template_id":   c.TemplateID,
		"title":         c.Title,
		"body":          c.Body,
		"status":        c.Status,
		"created_by":    c.CreatedBy,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}
	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}
	c.ID = created.ID
	c.CreatedOn = created.CreatedOn
	c.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a contract
func (r *ContractRepository) GetByID(ctx context.Context, id string) (*model.Contract, error) {
	result, err := r.db.QueryOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[model.Contract](result)
}

// List returns contracts newest first, optionally for one restaurant
func (r *ContractRepository) List(ctx context.Context, restaurantID, status string) ([]*model.Contract, error) {
	query := `SELECT * FROM contract`
	vars := map[string]interface{}{}
	switch {
	case restaurantID != "" && status != "":
		query += ` WHERE restaurant_id = $restaurant_id AND status = $status`
	case restaurantID != "":
		query += ` WHERE restaurant_id = $restaurant_id`
	case status != "":
		query += ` WHERE status = $status`
	}
	if restaurantID != "" {
		vars["restaurant_id"] = restaurantID
	}
	if status != "" {
		vars["status"] = status
	}
	query += ` ORDER BY created_on DESC`

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	return decodeRecords[model.Contract](result)
}

// Transition moves a contract between statuses, stamping sent_on/signed_on.
// It returns nil when the contract was not in one of the from statuses.
func (r *ContractRepository) Transition(ctx context.Context, id string, from []string, to string, signerName *string) (*model.Contract, error) {
	query := `
		UPDATE contract SET
			status = $to,
			signer_name = IF $signer_name IS NOT NULL THEN $signer_name ELSE signer_name END,
			sent_on = IF $stamp_sent THEN time::now() ELSE sent_on END,
			signed_on = IF $stamp_signed THEN time::now() ELSE signed_on END,
			updated_on = time::now()
		WHERE id = type::record($id) AND status IN $from
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":           id,
		"from":         from,
		"to":           to,
		"signer_name":  ptrToNone(signerName),
		"stamp_sent":   to == model.ContractStatusSent,
		"stamp_signed": to == model.ContractStatusSigned,
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[model.Contract](result)
}
