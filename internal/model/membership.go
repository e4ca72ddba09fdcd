package model

import "time"

// PlanInterval constants
const (
	PlanIntervalMonth = "month"
	PlanIntervalYear  = "year"
)

// MembershipPlan is a subscription tier
type MembershipPlan struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	Price           int64     `json:"price"`
	Currency        string    `json:"currency"`
	Interval        string    `json:"interval"`
	DiscountPercent int       `json:"discount_percent"` // off ticket prices
	Active          bool      `json:"active"`
	CreatedOn       time.Time `json:"created_on"`
	UpdatedOn       time.Time `json:"updated_on"`
}

// PeriodEnd returns the end of a billing period starting at start
func (p *MembershipPlan) PeriodEnd(start time.Time) time.Time {
	if p.Interval == PlanIntervalYear {
		return addMonths(start, 12)
	}
	return addMonths(start, 1)
}

// addMonths moves t by n calendar months. The day is clamped to the last
// day of the target month, so Jan 31 plus one month is the end of February.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	return first.AddDate(0, 0, min(d, last)-1)
}

// MembershipStatus constants
const (
	MembershipStatusPending   = "pending"
	MembershipStatusActive    = "active"
	MembershipStatusCancelled = "cancelled"
	MembershipStatusExpired   = "expired"
)

// Membership is a user's subscription to a plan
type Membership struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	PlanID             string     `json:"plan_id"`
	Status             string     `json:"status"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	PaymentID          *string    `json:"payment_id,omitempty"`
	CreatedOn          time.Time  `json:"created_on"`
	UpdatedOn          time.Time  `json:"updated_on"`
}

// IsCurrent reports whether the membership grants benefits at now
func (m *Membership) IsCurrent(now time.Time) bool {
	return m.Status == MembershipStatusActive && m.CurrentPeriodEnd != nil && m.CurrentPeriodEnd.After(now)
}

// CreatePlanRequest defines a new membership plan
type CreatePlanRequest struct {
	Name            string  `json:"name"`
	Description     *string `json:"description,omitempty"`
	Price           int64   `json:"price"`
	Currency        string  `json:"currency,omitempty"`
	Interval        string  `json:"interval"`
	DiscountPercent int     `json:"discount_percent"`
}

// Validate checks if the plan request is valid
func (r *CreatePlanRequest) Validate() []FieldError {
	var errors []FieldError

	errors = checkLength(errors, "name", r.Name, 2, 100)
	if r.Description != nil {
		errors = checkLength(errors, "description", *r.Description, 0, 1000)
	}
	if r.Price <= 0 {
		errors = append(errors, FieldError{Field: "price", Message: "price must be positive"})
	}
	if r.Currency != "" && len(r.Currency) != 3 {
		errors = append(errors, FieldError{Field: "currency", Message: "currency must be a 3-letter code"})
	}
	if r.Interval != PlanIntervalMonth && r.Interval != PlanIntervalYear {
		errors = append(errors, FieldError{Field: "interval", Message: "interval must be 'month' or 'year'"})
	}
	if r.DiscountPercent < 0 || r.DiscountPercent > 100 {
		errors = append(errors, FieldError{Field: "discount_percent", Message: "discount_percent must be between 0 and 100"})
	}

	return errors
}

// UpdatePlanRequest represents a partial plan update. Price and interval
// are fixed once created; make a new plan instead.
type UpdatePlanRequest struct {
	Name            *string `json:"name,omitempty"`
	Description     *string `json:"description,omitempty"`
	DiscountPercent *int    `json:"discount_percent,omitempty"`
	Active          *bool   `json:"active,omitempty"`
}

// Validate checks if the update request is valid
func (r *UpdatePlanRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Name != nil {
		errors = checkLength(errors, "name", *r.Name, 2, 100)
	}
	if r.Description != nil {
		errors = checkLength(errors, "description", *r.Description, 0, 1000)
	}
	if r.DiscountPercent != nil && (*r.DiscountPercent < 0 || *r.DiscountPercent > 100) {
		errors = append(errors, FieldError{Field: "discount_percent", Message: "discount_percent must be between 0 and 100"})
	}

	return errors
}

// SubscribeRequest starts a paid membership for the current user
type SubscribeRequest struct {
	PlanID string `json:"plan_id"`
	CheckoutOptions
}

// Validate checks if the subscribe request is valid
func (r *SubscribeRequest) Validate() []FieldError {
	if r.PlanID == "" {
		return []FieldError{{Field: "plan_id", Message: "plan_id is required"}}
	}
	return nil
}

// SubscribeResult is returned after starting a subscription checkout
type SubscribeResult struct {
	Membership   *Membership `json:"membership"`
	Payment      *Payment    `json:"payment"`
	AuthorizeURI string      `json:"authorize_uri,omitempty"`
}
