package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/eatmeetclub/api/internal/model"
)

// SignupRepository defines the interface for signup intent storage
type SignupRepository interface {
	Create(ctx context.Context, intent *model.SignupIntent) error
	GetByID(ctx context.Context, id string) (*model.SignupIntent, error)
	AttachPayment(ctx context.Context, id, paymentID string, authorizeURI *string) error
	MarkFailed(ctx context.Context, id, message string) error
}

// PlanReader looks membership plans up by id
type PlanReader interface {
	GetPlan(ctx context.Context, id string) (*model.MembershipPlan, error)
}

// SignupService runs the paid signup wizard: form, checkout, verification.
// The account only exists once the payment is verified.
type SignupService struct {
	repo     SignupRepository
	users    UserRepository
	plans    PlanReader
	payments *PaymentService
	feed     *LiveFeed
}

// SignupServiceConfig holds configuration for the signup service
type SignupServiceConfig struct {
	Repo     SignupRepository
	Users    UserRepository
	Plans    PlanReader
	Payments *PaymentService
	Feed     *LiveFeed // optional
}

// NewSignupService creates a new signup service
func NewSignupService(cfg SignupServiceConfig) *SignupService {
	return &SignupService{
		repo:     cfg.Repo,
		users:    cfg.Users,
		plans:    cfg.Plans,
		payments: cfg.Payments,
		feed:     cfg.Feed,
	}
}

// StartSignup validates the form, stores the intent and starts its checkout
func (s *SignupService) StartSignup(ctx context.Context, req *model.StartSignupRequest) (*model.SignupResult, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	email := model.NormalizeEmail(req.Email)

	if err := s.checkEmailFree(ctx, email); err != nil {
		return nil, err
	}
	plan, err := s.activePlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if err := s.payments.checkMethod(req.CheckoutOptions); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	intent := &model.SignupIntent{
		Email:     email,
		Firstname: strings.TrimSpace(req.Firstname),
		Lastname:  strings.TrimSpace(req.Lastname),
		Phone:     req.Phone,
		Hash:      hash,
		PlanID:    plan.ID,
		Step:      model.SignupStepPayment,
	}
	if err := s.repo.Create(ctx, intent); err != nil {
		return nil, err
	}

	return s.checkout(ctx, intent, plan, req.CheckoutOptions)
}

// GetSignup returns an intent so the wizard can show its step
func (s *SignupService) GetSignup(ctx context.Context, id string) (*model.SignupIntent, error) {
	intent, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, ErrSignupNotFound
	}
	return intent, nil
}

// RetrySignupPayment starts a fresh checkout for a failed intent
func (s *SignupService) RetrySignupPayment(ctx context.Context, id string, req *model.RetrySignupRequest) (*model.SignupResult, error) {
	intent, err := s.GetSignup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !intent.CanRetry() {
		return nil, ErrSignupNotRetryable
	}
	if err := s.checkEmailFree(ctx, intent.Email); err != nil {
		return nil, err
	}
	plan, err := s.activePlan(ctx, intent.PlanID)
	if err != nil {
		return nil, err
	}
	if err := s.payments.checkMethod(req.CheckoutOptions); err != nil {
		return nil, err
	}
	return s.checkout(ctx, intent, plan, req.CheckoutOptions)
}

func (s *SignupService) checkout(ctx context.Context, intent *model.SignupIntent, plan *model.MembershipPlan, opts model.CheckoutOptions) (*model.SignupResult, error) {
	payment, err := s.payments.startCheckout(ctx, checkout{
		Kind:        model.PaymentKindSignup,
		ReferenceID: intent.ID,
		Email:       intent.Email,
		Amount:      plan.Price,
		Currency:    plan.Currency,
		Description: "Membership signup: " + plan.Name,
		Options:     opts,
	})
	if err != nil {
		var declined *PaymentFailedError
		if payment == nil && !errors.As(err, &declined) {
			// The charge was never created; make the intent retryable
			if markErr := s.repo.MarkFailed(ctx, intent.ID, err.Error()); markErr != nil {
				slog.Error("failed to mark signup failed",
					slog.String("signup_id", intent.ID),
					slog.String("error", markErr.Error()))
			}
		}
		return nil, err
	}

	if !payment.IsSettled() {
		if err := s.repo.AttachPayment(ctx, intent.ID, payment.ID, payment.AuthorizeURI); err != nil {
			return nil, err
		}
	}

	stored, err := s.GetSignup(ctx, intent.ID)
	if err != nil {
		return nil, err
	}
	s.publish(stored)

	result := &model.SignupResult{Signup: stored, Payment: payment}
	if payment.AuthorizeURI != nil && !payment.IsSettled() {
		result.AuthorizeURI = *payment.AuthorizeURI
	}
	return result, nil
}

func (s *SignupService) checkEmailFree(ctx context.Context, email string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailAlreadyExists
	}
	return nil
}

func (s *SignupService) activePlan(ctx context.Context, id string) (*model.MembershipPlan, error) {
	plan, err := s.plans.GetPlan(ctx, id)
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

// publish goes to admin streams only: the signup has no user yet
func (s *SignupService) publish(intent *model.SignupIntent) {
	if s.feed != nil {
		s.feed.Publish(&FeedEvent{Type: FeedSignupUpdated, Data: intent})
	}
}
