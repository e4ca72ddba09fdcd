package handler

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/payments"
	"github.com/eatmeetclub/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	// ===== Typed errors carrying extra detail =====
	var validation *service.ValidationError
	if errors.As(err, &validation) {
		return model.NewValidationError(validation.Fields)
	}
	var soldOut *service.SoldOutError
	if errors.As(err, &soldOut) {
		return model.NewSoldOutError(soldOut.Remaining)
	}
	var failed *service.PaymentFailedError
	if errors.As(err, &failed) {
		return model.NewPaymentFailedError(failed.Message, failed.PaymentID)
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrInvalidCredentials):
		return model.NewUnauthorizedError(err.Error())
	case errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrRefreshTokenExpired),
		errors.Is(err, service.ErrRefreshTokenRevoked):
		return model.NewUnauthorizedError(err.Error())

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrNotOwner):
		return model.NewNotOwnerError("restaurant")
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrMemoryNotAllowed):
		return model.NewForbiddenError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrRestaurantNotFound):
		return model.NewNotFoundError("restaurant")
	case errors.Is(err, service.ErrMenuItemNotFound):
		return model.NewNotFoundError("menu item")
	case errors.Is(err, service.ErrEventNotFound):
		return model.NewNotFoundError("event")
	case errors.Is(err, service.ErrTicketNotFound):
		return model.NewNotFoundError("ticket")
	case errors.Is(err, service.ErrPaymentNotFound):
		return model.NewNotFoundError("payment")
	case errors.Is(err, service.ErrPlanNotFound):
		return model.NewNotFoundError("membership plan")
	case errors.Is(err, service.ErrMembershipNotFound):
		return model.NewNotFoundError("membership")
	case errors.Is(err, service.ErrSignupNotFound):
		return model.NewNotFoundError("signup")
	case errors.Is(err, service.ErrTemplateNotFound):
		return model.NewNotFoundError("template")
	case errors.Is(err, service.ErrContractNotFound):
		return model.NewNotFoundError("contract")
	case errors.Is(err, service.ErrFlagNotFound):
		return model.NewNotFoundError("feature flag")
	case errors.Is(err, service.ErrMemoryNotFound):
		return model.NewNotFoundError("memory")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrEmailAlreadyExists),
		errors.Is(err, service.ErrTemplateNameExists),
		errors.Is(err, service.ErrFlagExists),
		errors.Is(err, service.ErrAlreadySubscribed),
		errors.Is(err, service.ErrRestaurantHasEvents),
		errors.Is(err, service.ErrPaymentAlreadySettled),
		errors.Is(err, service.ErrSeatsUnavailable),
		errors.Is(err, service.ErrMembershipChanged):
		return model.NewConflictError(err.Error())
	case errors.Is(err, database.ErrDuplicate):
		return model.NewConflictError("resource already exists")

	// ===== State Errors → 422 =====
	case errors.Is(err, service.ErrRestaurantInactive),
		errors.Is(err, service.ErrEventNotDraft),
		errors.Is(err, service.ErrEventCompleted),
		errors.Is(err, service.ErrEventCancelled),
		errors.Is(err, service.ErrEventNotOnSale),
		errors.Is(err, service.ErrEventNotStarted),
		errors.Is(err, service.ErrTicketNotPending),
		errors.Is(err, service.ErrPlanInactive),
		errors.Is(err, service.ErrSignupNotRetryable),
		errors.Is(err, service.ErrContractInvalidStatus):
		return model.NewValidationError([]model.FieldError{{Field: "state", Message: err.Error()}})

	// ===== Field Errors → 422 =====
	case errors.Is(err, service.ErrEventInPast):
		return model.NewValidationError([]model.FieldError{{Field: "starts_at", Message: err.Error()}})
	case errors.Is(err, service.ErrCapacityTooSmall):
		return model.NewValidationError([]model.FieldError{{Field: "capacity", Message: err.Error()}})
	case errors.Is(err, service.ErrMenuItemNotInMenu):
		return model.NewValidationError([]model.FieldError{{Field: "menu_item_ids", Message: err.Error()}})
	case errors.Is(err, service.ErrOwnerMustBeRestaurant):
		return model.NewValidationError([]model.FieldError{{Field: "owner_id", Message: err.Error()}})
	case errors.Is(err, service.ErrTemplateWrongKind):
		return model.NewValidationError([]model.FieldError{{Field: "template_id", Message: err.Error()}})
	case errors.Is(err, payments.ErrNoPaymentMethod):
		return model.NewValidationError([]model.FieldError{{Field: "card_token", Message: "card_token or source_type is required"}})

	// ===== Webhook → 400 =====
	case errors.Is(err, service.ErrUnknownCharge):
		return model.NewBadRequestError(err.Error())

	// ===== Provider/External Errors → 502 =====
	case errors.Is(err, payments.ErrProvider):
		return model.NewExternalAPIError(providerDetail(err))

	// ===== Infrastructure → 503 =====
	case errors.Is(err, database.ErrConnection):
		return model.NewServiceUnavailableError("database unavailable")

	// ===== Default → 500 =====
	default:
		slog.Error("unmapped service error", slog.String("error", err.Error()))
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}

// providerDetail returns the processor's message without the sentinel prefix
func providerDetail(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, payments.ErrProvider.Error()+": "); i >= 0 {
		return msg[i+len(payments.ErrProvider.Error())+2:]
	}
	return msg
}
