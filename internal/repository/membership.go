package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
)

// MembershipRepository handles plan and membership data access
type MembershipRepository struct {
	db database.Database
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db database.Database) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// CreatePlan creates a membership plan
func (r *MembershipRepository) CreatePlan(ctx context.Context, plan *model.MembershipPlan) error {
	query := `
		CREATE membership_plan CONTENT {
			name: $name,
			description: IF $description IS NOT NULL THEN $description ELSE NONE END,
			price: $price,
			currency: $currency,
			interval: $interval,
			discount_percent: $discount_percent,
			active: $active,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"name":             plan.Name,
		"description":      ptrToNone(plan.Description),
		"price":            plan.Price,
		"currency":         plan.Currency,
		"interval":         plan.Interval,
		"discount_percent": plan.DiscountPercent,
		"active":           plan.Active,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}
	plan.ID = created.ID
	plan.CreatedOn = created.CreatedOn
	plan.UpdatedOn = created.UpdatedOn
	return nil
}

// GetPlan retrieves a plan
func (r *MembershipRepository) GetPlan(ctx context.Context, id string) (*model.MembershipPlan, error) {
	result, err := r.db.QueryOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[model.MembershipPlan](result)
}

// ListPlans returns plans ordered by price
func (r *MembershipRepository) ListPlans(ctx context.Context, activeOnly bool) ([]*model.MembershipPlan, error) {
	query := `SELECT * FROM membership_plan`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY price, name`

	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return decodeRecords[model.MembershipPlan](result)
}

// UpdatePlan applies a partial update
func (r *MembershipRepository) UpdatePlan(ctx context.Context, id string, updates map[string]interface{}) (*model.MembershipPlan, error) {
	return updateRecord[model.MembershipPlan](ctx, r.db, id, updates)
}

// Create creates a pending membership
func (r *MembershipRepository) Create(ctx context.Context, m *model.Membership) error {
	query := `
		CREATE membership CONTENT {
			user_id: $user_id,
			plan_id: $plan_id,
			status: $status,
			cancel_at_period_end: false,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"user_id": m.UserID,
		"plan_id": m.PlanID,
		"status":  m.Status,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}
	m.ID = created.ID
	m.CreatedOn = created.CreatedOn
	m.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a membership
func (r *MembershipRepository) GetByID(ctx context.Context, id string) (*model.Membership, error) {
	result, err := r.db.QueryOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[model.Membership](result)
}

// GetActiveForUser returns the user's active membership, if any
func (r *MembershipRepository) GetActiveForUser(ctx context.Context, userID string) (*model.Membership, error) {
	query := `
		SELECT * FROM membership
		WHERE user_id = $user_id AND status = $status
		ORDER BY current_period_end DESC
		LIMIT 1
	`
	vars := map[string]interface{}{
		"user_id": userID,
		"status":  model.MembershipStatusActive,
	}
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[model.Membership](result)
}

// ListByUser returns every membership of a user, newest first
func (r *MembershipRepository) ListByUser(ctx context.Context, userID string) ([]*model.Membership, error) {
	query := `SELECT * FROM membership WHERE user_id = $user_id ORDER BY created_on DESC`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	return decodeRecords[model.Membership](result)
}

// SetCancelAtPeriodEnd flags an active membership to end with its period
func (r *MembershipRepository) SetCancelAtPeriodEnd(ctx context.Context, id string, cancel bool) (*model.Membership, error) {
	return updateRecord[model.Membership](ctx, r.db, id, map[string]interface{}{
		"cancel_at_period_end": cancel,
	})
}

// ExpireEnded closes active memberships whose period ended before now.
// Memberships that asked to cancel become cancelled, the rest expired.
func (r *MembershipRepository) ExpireEnded(ctx context.Context, now time.Time) ([]*model.Membership, error) {
	query := `
		UPDATE membership SET
			status = IF cancel_at_period_end THEN $cancelled ELSE $expired END,
			updated_on = time::now()
		WHERE status = $active AND current_period_end < <datetime>$now
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"cancelled": model.MembershipStatusCancelled,
		"expired":   model.MembershipStatusExpired,
		"active":    model.MembershipStatusActive,
		"now":       datetime(now),
	}
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to expire memberships: %w", err)
	}
	return decodeRecords[model.Membership](result)
}
