package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/payments"
)

const (
	reconcileBatchSize = 100

	// settleAttempts bounds retries when the active membership moves
	// between reading it and settling against it.
	settleAttempts = 3
)

// PaymentRepository defines the interface for payment storage
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	GetByChargeID(ctx context.Context, chargeID string) (*model.Payment, error)
	SetCharge(ctx context.Context, id, chargeID string, authorizeURI *string) error
	List(ctx context.Context, filter model.PaymentFilter) ([]*model.Payment, bool, error)
	ListSuccessful(ctx context.Context, from, to *time.Time) ([]*model.Payment, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*model.Payment, error)
}

// SettlementRepository moves a pending payment and what it pays for to a
// final state atomically. Every method returns ErrPaymentAlreadySettled
// when the payment was no longer pending.
type SettlementRepository interface {
	SettleTicket(ctx context.Context, paymentID string, ticket *model.Ticket) error
	SettleMembership(ctx context.Context, paymentID string, membership *model.Membership, start, end time.Time) error
	ExtendMembership(ctx context.Context, paymentID string, pending, current *model.Membership, end time.Time) error
	SettleSignup(ctx context.Context, paymentID string, intent *model.SignupIntent, start, end time.Time) error
	Fail(ctx context.Context, payment *model.Payment, status, message string) error
}

// TicketReader looks tickets up by id
type TicketReader interface {
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
}

// MembershipReader looks memberships and plans up
type MembershipReader interface {
	GetByID(ctx context.Context, id string) (*model.Membership, error)
	GetActiveForUser(ctx context.Context, userID string) (*model.Membership, error)
	GetPlan(ctx context.Context, id string) (*model.MembershipPlan, error)
}

// SignupReader looks signup intents up by id
type SignupReader interface {
	GetByID(ctx context.Context, id string) (*model.SignupIntent, error)
}

// PaymentService starts checkouts with the processor and settles them
type PaymentService struct {
	payments    PaymentRepository
	settlements SettlementRepository
	tickets     TicketReader
	memberships MembershipReader
	signups     SignupReader
	gateway     payments.Gateway
	feed        *LiveFeed
	notifier    *NotificationService
	returnURL   func(paymentID string) string
	sourceType  string
	now         func() time.Time
}

// PaymentServiceConfig holds configuration for the payment service
type PaymentServiceConfig struct {
	Payments    PaymentRepository
	Settlements SettlementRepository
	Tickets     TicketReader
	Memberships MembershipReader
	Signups     SignupReader
	Gateway     payments.Gateway
	Feed        *LiveFeed            // optional
	Notifier    *NotificationService // optional
	ReturnURL   func(paymentID string) string
	SourceType  string // used when a checkout names no payment method
	Now         func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(cfg PaymentServiceConfig) *PaymentService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ReturnURL == nil {
		cfg.ReturnURL = func(string) string { return "" }
	}
	return &PaymentService{
		payments:    cfg.Payments,
		settlements: cfg.Settlements,
		tickets:     cfg.Tickets,
		memberships: cfg.Memberships,
		signups:     cfg.Signups,
		gateway:     cfg.Gateway,
		feed:        cfg.Feed,
		notifier:    cfg.Notifier,
		returnURL:   cfg.ReturnURL,
		sourceType:  cfg.SourceType,
		now:         cfg.Now,
	}
}

// checkout describes a payment to start
type checkout struct {
	Kind        model.PaymentKind
	ReferenceID string
	UserID      *string
	Email       string
	Amount      int64
	Currency    string
	Description string
	Options     model.CheckoutOptions
}

// checkMethod rejects a checkout that names no payment method when there
// is no default source type to fall back to.
func (s *PaymentService) checkMethod(opts model.CheckoutOptions) error {
	if opts.CardToken == "" && opts.SourceType == "" && s.sourceType == "" {
		return NewValidationError([]model.FieldError{
			{Field: "card_token", Message: "card_token or source_type is required"},
		})
	}
	return nil
}

// startCheckout records a pending payment and creates the processor charge.
// A charge the processor settles at once (card captures, instant declines)
// is settled before returning. A declined charge returns *PaymentFailedError.
func (s *PaymentService) startCheckout(ctx context.Context, c checkout) (*model.Payment, error) {
	if err := s.checkMethod(c.Options); err != nil {
		return nil, err
	}

	payment := &model.Payment{
		UserID:      c.UserID,
		Email:       c.Email,
		Kind:        c.Kind,
		ReferenceID: c.ReferenceID,
		Amount:      c.Amount,
		Currency:    c.Currency,
		Status:      model.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	req := payments.ChargeRequest{
		Amount:      c.Amount,
		Currency:    c.Currency,
		CardToken:   c.Options.CardToken,
		SourceType:  c.Options.SourceType,
		ReturnURI:   s.returnURL(payment.ID),
		Description: c.Description,
		Metadata: map[string]string{
			"payment_id":   payment.ID,
			"kind":         string(c.Kind),
			"reference_id": c.ReferenceID,
		},
	}
	if req.CardToken == "" && req.SourceType == "" {
		req.SourceType = s.sourceType
	}

	charge, err := s.gateway.CreateCharge(ctx, req)
	if err != nil {
		slog.Error("failed to create charge",
			slog.String("payment_id", payment.ID),
			slog.String("error", err.Error()))
		if failErr := s.settlements.Fail(ctx, payment, model.PaymentStatusFailed, providerMessage(err)); failErr != nil {
			slog.Error("failed to mark payment failed",
				slog.String("payment_id", payment.ID),
				slog.String("error", failErr.Error()))
		}
		return nil, err
	}

	var authorizeURI *string
	if charge.AuthorizeURI != "" {
		authorizeURI = &charge.AuthorizeURI
	}
	if err := s.payments.SetCharge(ctx, payment.ID, charge.ID, authorizeURI); err != nil {
		return nil, err
	}
	payment.ChargeID = &charge.ID
	payment.AuthorizeURI = authorizeURI

	if payments.SettledStatus(charge.Status) == payments.ChargePending {
		return payment, nil
	}

	settled, err := s.settle(ctx, payment, charge)
	if err != nil {
		return nil, err
	}
	switch settled.Status {
	case model.PaymentStatusFailed:
		message := ""
		if settled.FailureMessage != nil {
			message = *settled.FailureMessage
		}
		return settled, &PaymentFailedError{PaymentID: settled.ID, Message: message}
	case model.PaymentStatusRefunded:
		return settled, &SoldOutError{Remaining: 0}
	}
	return settled, nil
}

// Get returns a payment visible to the actor
func (s *PaymentService) Get(ctx context.Context, actor Actor, id string) (*model.Payment, error) {
	payment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !payment.BelongsTo(actor.UserID) {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// List returns payments for the admin billing view
func (s *PaymentService) List(ctx context.Context, filter model.PaymentFilter) ([]*model.Payment, bool, error) {
	filter.Page = filter.Page.Normalize()
	return s.payments.List(ctx, filter)
}

// VerifyPayment asks the processor for the charge status and settles the
// payment when the charge reached a final state. A payment that is already
// settled is returned unchanged. A signed-in viewer may only verify their
// own payments; anonymous verification serves the signup return page.
func (s *PaymentService) VerifyPayment(ctx context.Context, viewer *Actor, id string) (*model.Payment, error) {
	payment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewer != nil && !viewer.IsAdmin() && payment.UserID != nil && !payment.BelongsTo(viewer.UserID) {
		return nil, ErrPaymentNotFound
	}
	return s.verify(ctx, payment)
}

func (s *PaymentService) verify(ctx context.Context, payment *model.Payment) (*model.Payment, error) {
	if payment.IsSettled() || payment.ChargeID == nil {
		return payment, nil
	}
	charge, err := s.gateway.RetrieveCharge(ctx, *payment.ChargeID)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, payment, charge)
}

// HandleWebhook acts on a processor notification. Only the event id of the
// body is used: the event is fetched again from the processor.
func (s *PaymentService) HandleWebhook(ctx context.Context, body *model.WebhookEvent) error {
	if body.ID == "" {
		return NewValidationError([]model.FieldError{{Field: "id", Message: "id is required"}})
	}

	event, err := s.gateway.RetrieveEvent(ctx, body.ID)
	if err != nil {
		return err
	}
	if event.Key != payments.EventChargeComplete || event.Charge == nil {
		slog.Debug("ignoring webhook event",
			slog.String("event_id", event.ID),
			slog.String("key", event.Key))
		return nil
	}

	payment, err := s.payments.GetByChargeID(ctx, event.Charge.ID)
	if err != nil {
		return err
	}
	if payment == nil {
		slog.Warn("webhook for unknown charge",
			slog.String("event_id", event.ID),
			slog.String("charge_id", event.Charge.ID))
		return nil
	}
	if payment.IsSettled() {
		return nil
	}

	_, err = s.settle(ctx, payment, event.Charge)
	return err
}

// ReconcileResult counts what one reconciliation pass changed
type ReconcileResult struct {
	Checked int
	Settled int
	Expired int
}

// Reconcile verifies pending payments older than grace and expires those
// still pending after expiry. Per-payment failures are logged and skipped.
func (s *PaymentService) Reconcile(ctx context.Context, grace, expiry time.Duration) (ReconcileResult, error) {
	var result ReconcileResult
	now := s.now()

	pending, err := s.payments.ListPendingBefore(ctx, now.Add(-grace), reconcileBatchSize)
	if err != nil {
		return result, err
	}

	for _, payment := range pending {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Checked++

		verified, err := s.verify(ctx, payment)
		if err != nil {
			slog.Error("failed to verify pending payment",
				slog.String("payment_id", payment.ID),
				slog.String("error", err.Error()))
			verified = payment
		}
		if verified.IsSettled() {
			result.Settled++
			continue
		}

		if payment.CreatedOn.Before(now.Add(-expiry)) {
			if err := s.expire(ctx, payment); err != nil {
				slog.Error("failed to expire payment",
					slog.String("payment_id", payment.ID),
					slog.String("error", err.Error()))
				continue
			}
			result.Expired++
		}
	}
	return result, nil
}

func (s *PaymentService) expire(ctx context.Context, payment *model.Payment) error {
	err := s.settlements.Fail(ctx, payment, model.PaymentStatusExpired, "checkout expired before payment completed")
	if errors.Is(err, ErrPaymentAlreadySettled) {
		return nil
	}
	if err != nil {
		return err
	}
	updated, err := s.load(ctx, payment.ID)
	if err != nil {
		return err
	}
	s.announce(ctx, updated)
	return nil
}

// settle applies a final charge status to a pending payment. Losing the
// race to another verifier is not an error: the stored payment is returned.
func (s *PaymentService) settle(ctx context.Context, payment *model.Payment, charge *payments.Charge) (*model.Payment, error) {
	var err error
	switch payments.SettledStatus(charge.Status) {
	case payments.ChargeSuccessful:
		err = s.fulfil(ctx, payment)
		if errors.Is(err, ErrSeatsUnavailable) {
			err = s.refund(ctx, payment, charge)
		}
	case payments.ChargeFailed:
		err = s.settlements.Fail(ctx, payment, model.PaymentStatusFailed, chargeFailure(charge))
	default:
		return payment, nil
	}

	if errors.Is(err, ErrPaymentAlreadySettled) {
		return s.load(ctx, payment.ID)
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.load(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	slog.Info("payment settled",
		slog.String("payment_id", updated.ID),
		slog.String("kind", string(updated.Kind)),
		slog.String("status", updated.Status))
	s.announce(ctx, updated)
	return updated, nil
}

// fulfil marks the payment successful together with what it paid for
func (s *PaymentService) fulfil(ctx context.Context, payment *model.Payment) error {
	switch payment.Kind {
	case model.PaymentKindTicket:
		ticket, err := s.tickets.GetByID(ctx, payment.ReferenceID)
		if err != nil {
			return err
		}
		if ticket == nil {
			return fmt.Errorf("%w: ticket %s of payment %s", ErrTicketNotFound, payment.ReferenceID, payment.ID)
		}
		return s.settlements.SettleTicket(ctx, payment.ID, ticket)

	case model.PaymentKindMembership:
		membership, err := s.memberships.GetByID(ctx, payment.ReferenceID)
		if err != nil {
			return err
		}
		if membership == nil {
			return fmt.Errorf("%w: membership %s of payment %s", ErrMembershipNotFound, payment.ReferenceID, payment.ID)
		}
		plan, err := s.plan(ctx, membership.PlanID)
		if err != nil {
			return err
		}
		for attempt := 1; ; attempt++ {
			err = s.settleMembership(ctx, payment.ID, membership, plan)
			if !errors.Is(err, ErrMembershipChanged) || attempt == settleAttempts {
				return err
			}
			slog.Warn("active membership changed during settlement, retrying",
				slog.String("payment_id", payment.ID),
				slog.Int("attempt", attempt))
		}

	case model.PaymentKindSignup:
		intent, err := s.signups.GetByID(ctx, payment.ReferenceID)
		if err != nil {
			return err
		}
		if intent == nil {
			return fmt.Errorf("%w: signup %s of payment %s", ErrSignupNotFound, payment.ReferenceID, payment.ID)
		}
		plan, err := s.plan(ctx, intent.PlanID)
		if err != nil {
			return err
		}
		start := s.now().UTC()
		err = s.settlements.SettleSignup(ctx, payment.ID, intent, start, plan.PeriodEnd(start))
		if errors.Is(err, database.ErrDuplicate) {
			// The email was registered after the intent was created. The
			// charge went through, so the payment stays pending for support.
			slog.Error("signup email taken after payment",
				slog.String("payment_id", payment.ID),
				slog.String("signup_id", intent.ID))
			return ErrEmailAlreadyExists
		}
		return err
	}
	return fmt.Errorf("unknown payment kind %q", payment.Kind)
}

// settleMembership starts the paid membership, or adds the paid period to
// the end of the one the user already has so a user never holds two.
func (s *PaymentService) settleMembership(ctx context.Context, paymentID string, membership *model.Membership, plan *model.MembershipPlan) error {
	now := s.now().UTC()
	current, err := s.memberships.GetActiveForUser(ctx, membership.UserID)
	if err != nil {
		return err
	}
	if current != nil && current.ID != membership.ID && current.IsCurrent(now) {
		end := plan.PeriodEnd(current.CurrentPeriodEnd.UTC())
		return s.settlements.ExtendMembership(ctx, paymentID, membership, current, end)
	}
	return s.settlements.SettleMembership(ctx, paymentID, membership, now, plan.PeriodEnd(now))
}

// refund returns the money for a ticket whose seats were sold to someone
// else while the payment was pending. The payment is marked refunded first
// so only one settler issues the refund.
func (s *PaymentService) refund(ctx context.Context, payment *model.Payment, charge *payments.Charge) error {
	err := s.settlements.Fail(ctx, payment, model.PaymentStatusRefunded, "the event sold out before the payment completed")
	if err != nil {
		return err
	}
	if err := s.gateway.RefundCharge(ctx, charge.ID, payment.Amount); err != nil {
		slog.Error("failed to refund charge for sold out event",
			slog.String("payment_id", payment.ID),
			slog.String("charge_id", charge.ID),
			slog.String("error", err.Error()))
		return nil
	}
	slog.Info("refunded charge for sold out event",
		slog.String("payment_id", payment.ID),
		slog.String("charge_id", charge.ID))
	return nil
}

func (s *PaymentService) plan(ctx context.Context, id string) (*model.MembershipPlan, error) {
	plan, err := s.memberships.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func (s *PaymentService) load(ctx context.Context, id string) (*model.Payment, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// announce pushes the payment to the live feed and emails the payer
func (s *PaymentService) announce(ctx context.Context, payment *model.Payment) {
	userID := ""
	if payment.UserID != nil {
		userID = *payment.UserID
	}
	if s.feed != nil {
		s.feed.Publish(&FeedEvent{Type: FeedPaymentUpdated, Data: payment, UserID: userID})
	}

	subject, body := paymentEmail(payment)
	if subject != "" {
		s.notifier.Email(ctx, payment.Email, subject, body)
	}
}

func paymentEmail(p *model.Payment) (string, string) {
	what := map[model.PaymentKind]string{
		model.PaymentKindTicket:     "your event tickets",
		model.PaymentKindMembership: "your membership",
		model.PaymentKindSignup:     "your EatMeetClub membership",
	}[p.Kind]

	switch p.Status {
	case model.PaymentStatusSuccessful:
		return "Payment received",
			fmt.Sprintf("We received your payment of %s for %s. Thank you!", FormatAmount(p.Amount, p.Currency), what)
	case model.PaymentStatusFailed:
		reason := "the payment was declined"
		if p.FailureMessage != nil && *p.FailureMessage != "" {
			reason = *p.FailureMessage
		}
		return "Payment failed",
			fmt.Sprintf("Your payment of %s for %s did not go through: %s.", FormatAmount(p.Amount, p.Currency), what, reason)
	case model.PaymentStatusExpired:
		return "Checkout expired",
			fmt.Sprintf("Your checkout for %s expired before the payment was completed.", what)
	case model.PaymentStatusRefunded:
		return "Payment refunded",
			fmt.Sprintf("The event sold out before your payment went through. Your payment of %s for %s has been refunded.", FormatAmount(p.Amount, p.Currency), what)
	}
	return "", ""
}

// FormatAmount renders minor units as a decimal amount with currency code
func FormatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", amount/100, amount%100, strings.ToUpper(currency))
}

func chargeFailure(charge *payments.Charge) string {
	if charge.FailureMessage != "" {
		return charge.FailureMessage
	}
	if charge.FailureCode != "" {
		return charge.FailureCode
	}
	return "charge " + charge.Status
}

// providerMessage strips the wrapping sentinel so the stored failure is the
// processor's own text
func providerMessage(err error) string {
	msg := err.Error()
	if errors.Is(err, payments.ErrProvider) {
		msg = strings.TrimPrefix(msg, payments.ErrProvider.Error()+": ")
	}
	return msg
}
