package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/eatmeetclub/api/internal/model"
)

// MembershipRepository defines the interface for plan and membership storage
type MembershipRepository interface {
	CreatePlan(ctx context.Context, plan *model.MembershipPlan) error
	GetPlan(ctx context.Context, id string) (*model.MembershipPlan, error)
	ListPlans(ctx context.Context, activeOnly bool) ([]*model.MembershipPlan, error)
	UpdatePlan(ctx context.Context, id string, updates map[string]interface{}) (*model.MembershipPlan, error)
	Create(ctx context.Context, m *model.Membership) error
	GetByID(ctx context.Context, id string) (*model.Membership, error)
	GetActiveForUser(ctx context.Context, userID string) (*model.Membership, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Membership, error)
	SetCancelAtPeriodEnd(ctx context.Context, id string, cancel bool) (*model.Membership, error)
	ExpireEnded(ctx context.Context, now time.Time) ([]*model.Membership, error)
}

// MembershipService manages plans and subscriptions
type MembershipService struct {
	repo            MembershipRepository
	users           UserReader
	payments        *PaymentService
	feed            *LiveFeed
	notifier        *NotificationService
	defaultCurrency string
	now             func() time.Time
}

// MembershipServiceConfig holds configuration for the membership service
type MembershipServiceConfig struct {
	Repo            MembershipRepository
	Users           UserReader
	Payments        *PaymentService
	Feed            *LiveFeed            // optional
	Notifier        *NotificationService // optional
	DefaultCurrency string
	Now             func() time.Time
}

// NewMembershipService creates a new membership service
func NewMembershipService(cfg MembershipServiceConfig) *MembershipService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "thb"
	}
	return &MembershipService{
		repo:            cfg.Repo,
		users:           cfg.Users,
		payments:        cfg.Payments,
		feed:            cfg.Feed,
		notifier:        cfg.Notifier,
		defaultCurrency: cfg.DefaultCurrency,
		now:             cfg.Now,
	}
}

// CreatePlan adds a membership plan
func (s *MembershipService) CreatePlan(ctx context.Context, req *model.CreatePlanRequest) (*model.MembershipPlan, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = s.defaultCurrency
	}

	plan := &model.MembershipPlan{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Price:           req.Price,
		Currency:        currency,
		Interval:        req.Interval,
		DiscountPercent: req.DiscountPercent,
		Active:          true,
	}
	if err := s.repo.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// GetPlan returns a plan. Inactive plans are hidden unless includeInactive is set.
func (s *MembershipService) GetPlan(ctx context.Context, id string, includeInactive bool) (*model.MembershipPlan, error) {
	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil || (!plan.Active && !includeInactive) {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

// ListPlans returns plans ordered by price
func (s *MembershipService) ListPlans(ctx context.Context, activeOnly bool) ([]*model.MembershipPlan, error) {
	return s.repo.ListPlans(ctx, activeOnly)
}

// UpdatePlan renames, re-describes, re-prices the discount or retires a plan
func (s *MembershipService) UpdatePlan(ctx context.Context, id string, req *model.UpdatePlanRequest) (*model.MembershipPlan, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DiscountPercent != nil {
		updates["discount_percent"] = *req.DiscountPercent
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	plan, err := s.repo.UpdatePlan(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

// RetirePlan stops new subscriptions to a plan. Running memberships keep
// their period; retiring twice is not an error.
func (s *MembershipService) RetirePlan(ctx context.Context, id string) (*model.MembershipPlan, error) {
	plan, err := s.repo.UpdatePlan(ctx, id, map[string]interface{}{"active": false})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	slog.Info("membership plan retired", slog.String("plan_id", plan.ID))
	return plan, nil
}

// Subscribe starts a checkout for a plan. The membership stays pending
// until the payment is verified.
func (s *MembershipService) Subscribe(ctx context.Context, actor Actor, req *model.SubscribeRequest) (*model.SubscribeResult, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}

	plan, err := s.activePlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetActiveForUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if current != nil && current.IsCurrent(s.now()) {
		return nil, ErrAlreadySubscribed
	}

	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := s.payments.checkMethod(req.CheckoutOptions); err != nil {
		return nil, err
	}

	membership := &model.Membership{
		UserID: actor.UserID,
		PlanID: plan.ID,
		Status: model.MembershipStatusPending,
	}
	if err := s.repo.Create(ctx, membership); err != nil {
		return nil, err
	}

	payment, err := s.payments.startCheckout(ctx, checkout{
		Kind:        model.PaymentKindMembership,
		ReferenceID: membership.ID,
		UserID:      &actor.UserID,
		Email:       user.Email,
		Amount:      plan.Price,
		Currency:    plan.Currency,
		Description: "Membership: " + plan.Name,
		Options:     req.CheckoutOptions,
	})
	if err != nil {
		return nil, err
	}

	if payment.IsSettled() {
		if stored, err := s.repo.GetByID(ctx, membership.ID); err == nil && stored != nil {
			membership = stored
		}
	}

	result := &model.SubscribeResult{Membership: membership, Payment: payment}
	if payment.AuthorizeURI != nil && !payment.IsSettled() {
		result.AuthorizeURI = *payment.AuthorizeURI
	}
	return result, nil
}

// Mine returns the actor's memberships, newest first
func (s *MembershipService) Mine(ctx context.Context, actor Actor) ([]*model.Membership, error) {
	return s.repo.ListByUser(ctx, actor.UserID)
}

// Cancel asks for the membership to end with its current period
func (s *MembershipService) Cancel(ctx context.Context, actor Actor, id string) (*model.Membership, error) {
	return s.setCancel(ctx, actor, id, true)
}

// Resume withdraws a pending cancellation
func (s *MembershipService) Resume(ctx context.Context, actor Actor, id string) (*model.Membership, error) {
	return s.setCancel(ctx, actor, id, false)
}

func (s *MembershipService) setCancel(ctx context.Context, actor Actor, id string, cancel bool) (*model.Membership, error) {
	membership, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if membership == nil || (membership.UserID != actor.UserID && !actor.IsAdmin()) {
		return nil, ErrMembershipNotFound
	}
	if !membership.IsCurrent(s.now()) {
		return nil, ErrMembershipNotFound
	}

	updated, err := s.repo.SetCancelAtPeriodEnd(ctx, id, cancel)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrMembershipNotFound
	}
	s.publish(updated)
	return updated, nil
}

// ExpireEnded closes memberships whose period is over and tells their members
func (s *MembershipService) ExpireEnded(ctx context.Context) (int, error) {
	ended, err := s.repo.ExpireEnded(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for _, m := range ended {
		s.publish(m)
		if user, err := s.users.GetByID(ctx, m.UserID); err == nil && user != nil {
			s.notifier.Email(ctx, user.Email, "Your membership has ended",
				"Your EatMeetClub membership has ended. Subscribe again any time to keep your member discount.")
		}
	}
	return len(ended), nil
}

func (s *MembershipService) activePlan(ctx context.Context, id string) (*model.MembershipPlan, error) {
	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	if !plan.Active {
		return nil, ErrPlanInactive
	}
	return plan, nil
}

func (s *MembershipService) publish(m *model.Membership) {
	if s.feed != nil {
		s.feed.Publish(&FeedEvent{Type: FeedMembershipUpdated, Data: m, UserID: m.UserID})
	}
}
