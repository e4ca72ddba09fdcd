package repository

import (
	"context"
	"strings"
	"time"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/service"
)

// Messages thrown inside a settlement transaction. alreadySettled means the
// payment left pending before this settlement ran.
const (
	alreadySettled    = "payment already settled"
	seatsUnavailable  = "event sold out"
	membershipChanged = "membership changed"
)

// SettlementRepository moves a pending payment to a final status together
// with whatever it pays for, in one transaction.
type SettlementRepository struct {
	db database.Database
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db database.Database) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// addGuard queues the payment transition and aborts the batch if the
// payment was no longer pending.
func addGuard(b *database.Batch, paymentID, status string, failure *string) {
	b.Add(`
		LET $settled = (
			UPDATE payment SET
				status = $status,
				paid_on = IF $status = "successful" THEN time::now() ELSE NONE END,
				failure_message = IF $failure IS NOT NULL THEN $failure ELSE NONE END,
				updated_on = time::now()
			WHERE id = type::record($id) AND status = "pending"
			RETURN AFTER
		)
	`, map[string]interface{}{
		"id":      paymentID,
		"status":  status,
		"failure": ptrToNone(failure),
	})
	b.Add(`IF array::len($settled) = 0 { THROW "`+alreadySettled+`" }`, nil)
}

func (r *SettlementRepository) run(ctx context.Context, b *database.Batch) error {
	if err := b.Run(ctx, r.db); err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, alreadySettled):
			return service.ErrPaymentAlreadySettled
		case strings.Contains(msg, seatsUnavailable):
			return service.ErrSeatsUnavailable
		case strings.Contains(msg, membershipChanged):
			return service.ErrMembershipChanged
		}
		return err
	}
	return nil
}

// addSeats queues the seat count for a ticket and aborts the batch when the
// event has fewer seats left than the ticket holds.
func addSeats(b *database.Batch, ticket *model.Ticket) {
	b.Add(`
		LET $seated = (
			UPDATE type::record($id) SET seats_sold += $quantity, updated_on = time::now()
			WHERE seats_sold + $quantity <= capacity
			RETURN AFTER
		)
	`, map[string]interface{}{
		"id":       ticket.EventID,
		"quantity": ticket.Quantity,
	})
	b.Add(`IF array::len($seated) = 0 { THROW "`+seatsUnavailable+`" }`, nil)
}

// SettleTicket marks the payment successful, the ticket paid and counts the
// seats as sold. Returns ErrSeatsUnavailable, with nothing changed, when
// the event filled up while the payment was pending.
func (r *SettlementRepository) SettleTicket(ctx context.Context, paymentID string, ticket *model.Ticket) error {
	b := database.NewBatch()
	addGuard(b, paymentID, model.PaymentStatusSuccessful, nil)
	b.Add(`UPDATE type::record($id) SET status = $status, updated_on = time::now()`, map[string]interface{}{
		"id":     ticket.ID,
		"status": model.TicketStatusPaid,
	})
	addSeats(b, ticket)
	return r.run(ctx, b)
}

// SettleMembership marks the payment successful and starts the membership
// period. Returns ErrMembershipChanged when the user holds another
// membership that is still active at start.
func (r *SettlementRepository) SettleMembership(ctx context.Context, paymentID string, membership *model.Membership, start, end time.Time) error {
	b := database.NewBatch()
	addGuard(b, paymentID, model.PaymentStatusSuccessful, nil)
	b.Add(`
		LET $others = (
			SELECT VALUE id FROM membership
			WHERE user_id = $user_id AND status = $active
				AND current_period_end > <datetime>$start
				AND id != type::record($id)
		)
	`, map[string]interface{}{
		"id":      membership.ID,
		"user_id": membership.UserID,
		"active":  model.MembershipStatusActive,
		"start":   datetime(start),
	})
	b.Add(`IF array::len($others) > 0 { THROW "`+membershipChanged+`" }`, nil)
	b.Add(`
		UPDATE type::record($id) SET
			status = $status,
			current_period_start = <datetime>$start,
			current_period_end = <datetime>$end,
			cancel_at_period_end = false,
			payment_id = $payment_id,
			updated_on = time::now()
	`, map[string]interface{}{
		"id":         membership.ID,
		"status":     model.MembershipStatusActive,
		"start":      datetime(start),
		"end":        datetime(end),
		"payment_id": paymentID,
	})
	return r.run(ctx, b)
}

// ExtendMembership settles a renewal bought while current is still active:
// current moves to the purchased plan and runs until end, and the pending
// membership is closed as cancelled. Returns ErrMembershipChanged when
// current was changed after it was read.
func (r *SettlementRepository) ExtendMembership(ctx context.Context, paymentID string, pending, current *model.Membership, end time.Time) error {
	if current.CurrentPeriodEnd == nil {
		return service.ErrMembershipChanged
	}

	b := database.NewBatch()
	addGuard(b, paymentID, model.PaymentStatusSuccessful, nil)
	b.Add(`
		LET $extended = (
			UPDATE type::record($id) SET
				plan_id = $plan_id,
				current_period_end = <datetime>$end,
				cancel_at_period_end = false,
				payment_id = $payment_id,
				updated_on = time::now()
			WHERE status = $active AND current_period_end = <datetime>$seen
			RETURN AFTER
		)
	`, map[string]interface{}{
		"id":         current.ID,
		"plan_id":    pending.PlanID,
		"end":        datetime(end),
		"payment_id": paymentID,
		"active":     model.MembershipStatusActive,
		"seen":       datetime(*current.CurrentPeriodEnd),
	})
	b.Add(`IF array::len($extended) = 0 { THROW "`+membershipChanged+`" }`, nil)
	b.Add(`
		UPDATE type::record($id) SET
			status = $status,
			payment_id = $payment_id,
			updated_on = time::now()
	`, map[string]interface{}{
		"id":         pending.ID,
		"status":     model.MembershipStatusCancelled,
		"payment_id": paymentID,
	})
	return r.run(ctx, b)
}

// SettleSignup marks the payment successful, creates the account and its
// active membership, and completes the signup intent.
func (r *SettlementRepository) SettleSignup(ctx context.Context, paymentID string, intent *model.SignupIntent, start, end time.Time) error {
	b := database.NewBatch()
	addGuard(b, paymentID, model.PaymentStatusSuccessful, nil)
	b.Add(`
		LET $account = (CREATE user CONTENT {
			email: $email,
			hash: $hash,
			firstname: $firstname,
			lastname: $lastname,
			phone: IF $phone IS NOT NULL THEN $phone ELSE NONE END,
			role: $role,
			created_on: time::now(),
			updated_on: time::now()
		})
	`, map[string]interface{}{
		"email":     intent.Email,
		"hash":      intent.Hash,
		"firstname": intent.Firstname,
		"lastname":  intent.Lastname,
		"phone":     ptrToNone(intent.Phone),
		"role":      model.UserRoleMember,
	})
	b.Add(`LET $account_id = <string>$account[0].id`, nil)
	b.Add(`
		CREATE membership CONTENT {
			user_id: $account_id,
			plan_id: $plan_id,
			status: $status,
			current_period_start: <datetime>$start,
			current_period_end: <datetime>$end,
			cancel_at_period_end: false,
			payment_id: $payment_id,
			created_on: time::now(),
			updated_on: time::now()
		}
	`, map[string]interface{}{
		"plan_id":    intent.PlanID,
		"status":     model.MembershipStatusActive,
		"start":      datetime(start),
		"end":        datetime(end),
		"payment_id": paymentID,
	})
	b.Add(`UPDATE type::record($id) SET user_id = $account_id`, map[string]interface{}{"id": paymentID})
	b.Add(`
		UPDATE type::record($id) SET
			step = $step,
			user_id = $account_id,
			payment_id = $payment_id,
			authorize_uri = NONE,
			failure_message = NONE,
			updated_on = time::now()
	`, map[string]interface{}{
		"id":         intent.ID,
		"step":       model.SignupStepComplete,
		"payment_id": paymentID,
	})
	return r.run(ctx, b)
}

// Fail moves the payment to failed, expired or refunded and releases what
// it was for: a pending ticket is cancelled (or refunded), a pending
// membership cancelled and a signup intent marked failed so it can be retried.
func (r *SettlementRepository) Fail(ctx context.Context, payment *model.Payment, status, message string) error {
	b := database.NewBatch()
	addGuard(b, payment.ID, status, &message)

	switch payment.Kind {
	case model.PaymentKindTicket:
		released := model.TicketStatusCancelled
		if status == model.PaymentStatusRefunded {
			released = model.TicketStatusRefunded
		}
		b.Add(`
			UPDATE ticket SET status = $released, updated_on = time::now()
			WHERE id = type::record($id) AND status = $pending
		`, map[string]interface{}{
			"id":       payment.ReferenceID,
			"released": released,
			"pending":  model.TicketStatusPending,
		})
	case model.PaymentKindMembership:
		b.Add(`
			UPDATE membership SET status = $cancelled, updated_on = time::now()
			WHERE id = type::record($id) AND status = $pending
		`, map[string]interface{}{
			"id":        payment.ReferenceID,
			"cancelled": model.MembershipStatusCancelled,
			"pending":   model.MembershipStatusPending,
		})
	case model.PaymentKindSignup:
		b.Add(`
			UPDATE signup_intent SET
				step = $failed,
				payment_id = $payment_id,
				authorize_uri = NONE,
				failure_message = $message,
				updated_on = time::now()
			WHERE id = type::record($id) AND step = $payment
		`, map[string]interface{}{
			"id":         payment.ReferenceID,
			"failed":     model.SignupStepFailed,
			"payment_id": payment.ID,
			"message":    message,
			"payment":    model.SignupStepPayment,
		})
	}
	return r.run(ctx, b)
}
