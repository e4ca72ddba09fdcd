package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
)

// SignupRepository handles signup intent data access
type SignupRepository struct {
	db database.Database
}

// NewSignupRepository creates a new signup repository
func NewSignupRepository(db database.Database) *SignupRepository {
	return &SignupRepository{db: db}
}

// Create stores a new intent
func (r *SignupRepository) Create(ctx context.Context, intent *model.SignupIntent) error {
	query := `
		CREATE signup_intent CONTENT {
			email: $email,
			firstname: $firstname,
			lastname: $lastname,
			phone: IF $phone IS NOT NULL THEN $phone ELSE NONE END,
			hash: $hash,
			plan_id: $plan_id,
			step: $step,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"email":     intent.Email,
		"firstname": intent.Firstname,
		"lastname":  intent.Lastname,
		"phone":     ptrToNone(intent.Phone),
		"hash":      intent.Hash,
		"plan_id":   intent.PlanID,
		"step":      intent.Step,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create signup intent: %w", err)
	}
	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}
	intent.ID = created.ID
	intent.CreatedOn = created.CreatedOn
	intent.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves an intent including its password hash
func (r *SignupRepository) GetByID(ctx context.Context, id string) (*model.SignupIntent, error) {
	result, err := r.db.QueryOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	data, err := unwrapRecord(result)
	if err != nil {
		return nil, err
	}
	intent, err := decodeRecord[model.SignupIntent](data)
	if err != nil {
		return nil, err
	}
	intent.Hash = getString(data, "hash")
	return intent, nil
}

// AttachPayment records the checkout started for an intent and resets it to the payment step
func (r *SignupRepository) AttachPayment(ctx context.Context, id, paymentID string, authorizeURI *string) error {
	query := `
		UPDATE type::record($id) SET
			step = $step,
			payment_id = $payment_id,
			authorize_uri = IF $authorize_uri IS NOT NULL THEN $authorize_uri ELSE NONE END,
			failure_message = NONE,
			updated_on = time::now()
	`
	vars := map[string]interface{}{
		"id":            id,
		"step":          model.SignupStepPayment,
		"payment_id":    paymentID,
		"authorize_uri": ptrToNone(authorizeURI),
	}
	return r.db.Execute(ctx, query, vars)
}

// MarkFailed moves an intent to failed outside of a payment settlement
func (r *SignupRepository) MarkFailed(ctx context.Context, id, message string) error {
	query := `UPDATE type::record($id) SET step = $step, failure_message = $message, updated_on = time::now()`
	vars := map[string]interface{}{
		"id":      id,
		"step":    model.SignupStepFailed,
		"message": message,
	}
	return r.db.Execute(ctx, query, vars)
}
