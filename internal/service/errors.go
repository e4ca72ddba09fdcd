package service

import (
	"errors"
	"fmt"

	"github.com/eatmeetclub/api/internal/model"
)

// Centralized service layer errors.
// Handlers map them to problem details in one place (handler.MapServiceError).

// ===== Authentication Errors =====
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
)

// ===== Token Errors =====
var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
)

// ===== Authorization Errors =====
var (
	ErrForbidden = errors.New("not allowed to perform this action")
	ErrNotOwner  = errors.New("not the owner of this resource")
)

// ===== Restaurant and Menu Errors =====
var (
	ErrRestaurantNotFound    = errors.New("restaurant not found")
	ErrRestaurantInactive    = errors.New("restaurant is inactive")
	ErrRestaurantHasEvents   = errors.New("restaurant has upcoming published events")
	ErrMenuItemNotFound      = errors.New("menu item not found")
	ErrMenuItemNotInMenu     = errors.New("menu items must belong to the event's restaurant")
	ErrOwnerMustBeRestaurant = errors.New("owner must have the restaurant role")
)

// ===== Dining Event Errors =====
var (
	ErrEventNotFound    = errors.New("event not found")
	ErrEventNotDraft    = errors.New("only draft events can be published")
	ErrEventCompleted   = errors.New("event is already completed")
	ErrEventCancelled   = errors.New("event is cancelled")
	ErrEventNotOnSale   = errors.New("event is not on sale")
	ErrEventInPast      = errors.New("event must start in the future")
	ErrCapacityTooSmall = errors.New("capacity cannot be lower than seats already sold")
)

// ===== Ticket Errors =====
var (
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrTicketNotPending = errors.New("only pending tickets can be cancelled")
	ErrSeatsUnavailable = errors.New("not enough seats left for this ticket")
)

// ===== Payment Errors =====
var (
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrPaymentAlreadySettled = errors.New("payment already settled")
	ErrUnknownCharge         = errors.New("charge does not belong to any payment")
)

// ===== Membership Errors =====
var (
	ErrPlanNotFound       = errors.New("membership plan not found")
	ErrPlanInactive       = errors.New("membership plan is not available")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrAlreadySubscribed  = errors.New("already has an active membership")
	ErrMembershipChanged  = errors.New("active membership changed during settlement")
)

// ===== Signup Errors =====
var (
	ErrSignupNotFound     = errors.New("signup not found")
	ErrSignupNotRetryable = errors.New("only failed signups can be retried")
)

// ===== Template and Contract Errors =====
var (
	ErrTemplateNotFound      = errors.New("template not found")
	ErrTemplateNameExists    = errors.New("a template with this name already exists")
	ErrTemplateWrongKind     = errors.New("template kind does not fit this use")
	ErrContractNotFound      = errors.New("contract not found")
	ErrContractInvalidStatus = errors.New("contract cannot move to that status")
)

// ===== Feature Flag Errors =====
var (
	ErrFlagNotFound = errors.New("feature flag not found")
	ErrFlagExists   = errors.New("a feature flag with this key already exists")
)

// ===== Memory Errors =====
var (
	ErrMemoryNotFound   = errors.New("memory not found")
	ErrMemoryNotAllowed = errors.New("only guests with a paid ticket can share memories")
	ErrEventNotStarted  = errors.New("memories can be shared once the event has started")
)

// ValidationError carries field errors found by a service
type ValidationError struct {
	Fields []model.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("validation failed: %s: %s", e.Fields[0].Field, e.Fields[0].Message)
	}
	return fmt.Sprintf("validation failed: %d fields", len(e.Fields))
}

// NewValidationError wraps field errors, returning nil when there are none
func NewValidationError(fields []model.FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// SoldOutError is returned when fewer seats remain than were requested
type SoldOutError struct {
	Remaining int
}

func (e *SoldOutError) Error() string {
	return fmt.Sprintf("only %d seats remaining", e.Remaining)
}

// PaymentFailedError is returned when the processor declined a payment.
// Message is the processor's own failure text.
type PaymentFailedError struct {
	PaymentID string
	Message   string
}

func (e *PaymentFailedError) Error() string {
	return "payment failed: " + e.Message
}
