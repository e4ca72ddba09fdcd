package model

import "time"

// PaymentKind names what a payment pays for
type PaymentKind string

const (
	PaymentKindTicket     PaymentKind = "ticket"
	PaymentKindMembership PaymentKind = "membership"
	PaymentKindSignup     PaymentKind = "signup"
)

// PaymentStatus constants
const (
	PaymentStatusPending    = "pending"
	PaymentStatusSuccessful = "successful"
	PaymentStatusFailed     = "failed"
	PaymentStatusExpired    = "expired"
	PaymentStatusRefunded   = "refunded"
)

// Payment is one attempt to collect money through the processor. It is
// also the billing record the admin dashboard aggregates over.
type Payment struct {
	ID             string      `json:"id"`
	UserID         *string     `json:"user_id,omitempty"` // nil for signups until the account exists
	Email          string      `json:"email"`
	Kind           PaymentKind `json:"kind"`
	ReferenceID    string      `json:"reference_id"` // ticket, membership or signup intent
	Amount         int64       `json:"amount"`
	Currency       string      `json:"currency"`
	Status         string      `json:"status"`
	ChargeID       *string     `json:"charge_id,omitempty"`
	AuthorizeURI   *string     `json:"authorize_uri,omitempty"`
	FailureMessage *string     `json:"failure_message,omitempty"`
	CreatedOn      time.Time   `json:"created_on"`
	UpdatedOn      time.Time   `json:"updated_on"`
	PaidOn         *time.Time  `json:"paid_on,omitempty"`
}

// IsSettled reports whether the payment reached a final state
func (p *Payment) IsSettled() bool {
	return p.Status != PaymentStatusPending
}

// BelongsTo reports whether userID may see the payment
func (p *Payment) BelongsTo(userID string) bool {
	return p.UserID != nil && *p.UserID == userID
}

// PaymentFilter narrows the admin billing list
type PaymentFilter struct {
	Status string
	Kind   PaymentKind
	UserID string
	From   *time.Time
	To     *time.Time
	Page   Page
}

// WebhookEvent is the body the processor POSTs. Only the id is trusted;
// the event is fetched again from the processor before acting on it.
type WebhookEvent struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Data any    `json:"data,omitempty"`
}
