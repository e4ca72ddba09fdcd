package model

import "time"

// Ticket is a purchase of one or more seats at a dining event.
// Amount is the total charged after any member discount.
type Ticket struct {
	ID              string    `json:"id"`
	EventID         string    `json:"event_id"`
	UserID          string    `json:"user_id"`
	Quantity        int       `json:"quantity"`
	UnitPrice       int64     `json:"unit_price"`
	DiscountPercent int       `json:"discount_percent"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	Code            string    `json:"code"`
	Status          string    `json:"status"`
	PaymentID       *string   `json:"payment_id,omitempty"`
	CreatedOn       time.Time `json:"created_on"`
	UpdatedOn       time.Time `json:"updated_on"`
}

// TicketStatus constants
const (
	TicketStatusPending   = "pending"
	TicketStatusPaid      = "paid"
	TicketStatusCancelled = "cancelled"
	TicketStatusRefunded  = "refunded"
)

const (
	MinTicketsPerOrder = 1
	MaxTicketsPerOrder = 10
)

// CheckoutOptions selects how the processor collects money. A card token
// charges directly; a source type (e.g. "promptpay") creates an offsite source.
type CheckoutOptions struct {
	CardToken  string `json:"card_token,omitempty"`
	SourceType string `json:"source_type,omitempty"`
}

// PurchaseTicketsRequest buys seats at an event
type PurchaseTicketsRequest struct {
	Quantity int `json:"quantity"`
	CheckoutOptions
}

// Validate checks if the purchase request is valid
func (r *PurchaseTicketsRequest) Validate() []FieldError {
	if r.Quantity < MinTicketsPerOrder || r.Quantity > MaxTicketsPerOrder {
		return []FieldError{{Field: "quantity", Message: "quantity must be between 1 and 10"}}
	}
	return nil
}

// PurchaseResult is returned after starting a ticket purchase. AuthorizeURI is
// empty when no redirect is needed (free events, immediate card captures).
type PurchaseResult struct {
	Ticket       *Ticket  `json:"ticket"`
	Payment      *Payment `json:"payment,omitempty"`
	AuthorizeURI string   `json:"authorize_uri,omitempty"`
}

// Attendee is a paid ticket joined with its holder for the host's guest list
type Attendee struct {
	TicketID string `json:"ticket_id"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Quantity int    `json:"quantity"`
	Code     string `json:"code"`
}
