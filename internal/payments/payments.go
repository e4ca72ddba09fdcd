package payments

import (
	"context"
	"errors"
)

var (
	// ErrProvider wraps every error returned by the processor. The wrapped
	// message is the processor's own and is safe to show to the user.
	ErrProvider = errors.New("payment provider error")

	// ErrNoPaymentMethod is returned when neither a card token nor a source
	// type was supplied and no default source type is configured.
	ErrNoPaymentMethod = errors.New("no payment method")
)

// Processor charge statuses
const (
	ChargeSuccessful = "successful"
	ChargeFailed     = "failed"
	ChargePending    = "pending"
	ChargeExpired    = "expired"
	ChargeReversed   = "reversed"
)

// EventChargeComplete is the webhook key sent when a charge settles
const EventChargeComplete = "charge.complete"

// ChargeRequest describes one checkout
type ChargeRequest struct {
	Amount      int64
	Currency    string
	CardToken   string
	SourceType  string
	ReturnURI   string
	Description string
	Metadata    map[string]string
}

// Charge is the processor's view of a payment
type Charge struct {
	ID             string
	Status         string
	Amount         int64
	Currency       string
	AuthorizeURI   string
	FailureCode    string
	FailureMessage string
	Metadata       map[string]string
}

// Event is a processor notification, re-fetched by id
type Event struct {
	ID     string
	Key    string
	Charge *Charge // set for charge.* events
}

// Gateway talks to the payment processor
type Gateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	RetrieveCharge(ctx context.Context, chargeID string) (*Charge, error)
	RetrieveEvent(ctx context.Context, eventID string) (*Event, error)
	RefundCharge(ctx context.Context, chargeID string, amount int64) error
}

// SettledStatus maps a processor charge status onto a payment status:
// successful, failed or pending.
func SettledStatus(chargeStatus string) string {
	switch chargeStatus {
	case ChargeSuccessful:
		return ChargeSuccessful
	case ChargeFailed, ChargeExpired, ChargeReversed:
		return ChargeFailed
	default:
		return ChargePending
	}
}
