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

// PaymentRepository handles payment data access
type PaymentRepository struct {
	db database.Database
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db database.Database) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create creates a pending payment
func (r *PaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `
		CREATE payment CONTENT {
			user_id: IF $user_id IS NOT NULL THEN $user_id ELSE NONE END,
			email: $email,
			kind: $kind,
			reference_id: $reference_id,
			amount: $amount,
			currency: $currency,
			status: $status,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"user_id":      ptrToNone(payment.UserID),
		"email":        payment.Email,
		"kind":         payment.Kind,
		"reference_id": payment.ReferenceID,
		"amount":       payment.Amount,
		"currency":     payment.Currency,
		"status":       payment.Status,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}
	payment.ID = created.ID
	payment.CreatedOn = created.CreatedOn
	payment.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a payment
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	query := `SELECT * FROM type::record($id)`
	return r.getOne(ctx, query, map[string]interface{}{"id": id})
}

// GetByChargeID finds the payment owning a processor charge
func (r *PaymentRepository) GetByChargeID(ctx context.Context, chargeID string) (*model.Payment, error) {
	query := `SELECT * FROM payment WHERE charge_id = $charge_id LIMIT 1`
	return r.getOne(ctx, query, map[string]interface{}{"charge_id": chargeID})
}

func (r *PaymentRepository) getOne(ctx context.Context, query string, vars map[string]interface{}) (*model.Payment, error) {
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	payment, err := decodeRecord[model.Payment](result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return payment, nil
}

// SetCharge stores the processor charge created for a payment
func (r *PaymentRepository) SetCharge(ctx context.Context, id, chargeID string, authorizeURI *string) error {
	query := `
		UPDATE type::record($id) SET
			charge_id = $charge_id,
			authorize_uri = IF $authorize_uri IS NOT NULL THEN $authorize_uri ELSE NONE END,
			updated_on = time::now()
	`
	vars := map[string]interface{}{
		"id":            id,
		"charge_id":     chargeID,
		"authorize_uri": ptrToNone(authorizeURI),
	}
	return r.db.Execute(ctx, query, vars)
}

// List returns payments matching the filter, newest first
func (r *PaymentRepository) List(ctx context.Context, filter model.PaymentFilter) ([]*model.Payment, bool, error) {
	var conds []string
	vars := map[string]interface{}{}

	if filter.Status != "" {
		conds = append(conds, "status = $status")
		vars["status"] = filter.Status
	}
	if filter.Kind != "" {
		conds = append(conds, "kind = $kind")
		vars["kind"] = filter.Kind
	}
	if filter.UserID != "" {
		conds = append(conds, "user_id = $user_id")
		vars["user_id"] = filter.UserID
	}
	if filter.From != nil {
		conds = append(conds, "created_on >= <datetime>$from")
		vars["from"] = datetime(*filter.From)
	}
	if filter.To != nil {
		conds = append(conds, "created_on < <datetime>$to")
		vars["to"] = datetime(*filter.To)
	}

	query := `SELECT * FROM payment`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_on DESC LIMIT $limit START $offset`
	pageVars(vars, filter.Page.Limit, filter.Page.Offset)

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list payments: %w", err)
	}
	payments, err := decodeRecords[model.Payment](result)
	if err != nil {
		return nil, false, err
	}
	payments, more := trimPage(payments, filter.Page.Limit)
	return payments, more, nil
}

// ListSuccessful returns successful payments paid within [from, to).
// Either bound may be nil.
func (r *PaymentRepository) ListSuccessful(ctx context.Context, from, to *time.Time) ([]*model.Payment, error) {
	conds := []string{"status = $status", "paid_on != NONE"}
	vars := map[string]interface{}{"status": model.PaymentStatusSuccessful}
	if from != nil {
		conds = append(conds, "paid_on >= <datetime>$from")
		vars["from"] = datetime(*from)
	}
	if to != nil {
		conds = append(conds, "paid_on < <datetime>$to")
		vars["to"] = datetime(*to)
	}

	query := `SELECT * FROM payment WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY paid_on`

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list successful payments: %w", err)
	}
	return decodeRecords[model.Payment](result)
}

// ListPendingBefore returns pending payments created before cutoff, oldest first
func (r *PaymentRepository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*model.Payment, error) {
	query := `
		SELECT * FROM payment
		WHERE status = $status AND created_on < <datetime>$cutoff
		ORDER BY created_on
		LIMIT $limit
	`
	vars := map[string]interface{}{
		"status": model.PaymentStatusPending,
		"cutoff": datetime(cutoff),
		"limit":  limit,
	}
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}
	return decodeRecords[model.Payment](result)
}
