package model

import "time"

// SignupStep is where a signup intent sits in the wizard
type SignupStep string

const (
	SignupStepSignup   SignupStep = "signup"
	SignupStepPayment  SignupStep = "payment"
	SignupStepComplete SignupStep = "complete"
	SignupStepFailed   SignupStep = "failed"
)

// SignupIntent holds the form values of a paid signup between the form
// submit and the payment verification. The account is created only once
// the payment succeeds.
type SignupIntent struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Firstname      string     `json:"firstname"`
	Lastname       string     `json:"lastname"`
	Phone          *string    `json:"phone,omitempty"`
	Hash           string     `json:"-"`
	PlanID         string     `json:"plan_id"`
	Step           SignupStep `json:"step"`
	PaymentID      *string    `json:"payment_id,omitempty"`
	AuthorizeURI   *string    `json:"authorize_uri,omitempty"`
	UserID         *string    `json:"user_id,omitempty"`
	FailureMessage *string    `json:"failure_message,omitempty"`
	CreatedOn      time.Time  `json:"created_on"`
	UpdatedOn      time.Time  `json:"updated_on"`
}

// CanRetry reports whether a new checkout may be started for the intent
func (s *SignupIntent) CanRetry() bool {
	return s.Step == SignupStepFailed
}

// StartSignupRequest is the combined signup + payment form
type StartSignupRequest struct {
	Firstname string  `json:"firstname"`
	Lastname  string  `json:"lastname"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Phone     *string `json:"phone,omitempty"`
	PlanID    string  `json:"plan_id"`
	CheckoutOptions
}

// Validate checks if the signup form is valid
func (r *StartSignupRequest) Validate() []FieldError {
	errors := validateAccountFields(r.Email, r.Password, r.Firstname, r.Lastname)
	if r.PlanID == "" {
		errors = append(errors, FieldError{Field: "plan_id", Message: "plan_id is required"})
	}
	return errors
}

// RetrySignupRequest starts a new checkout for a failed intent
type RetrySignupRequest struct {
	CheckoutOptions
}

// SignupResult is returned when a signup checkout starts. AuthorizeURI is
// where the browser goes to pay.
type SignupResult struct {
	Signup       *SignupIntent `json:"signup"`
	Payment      *Payment      `json:"payment,omitempty"`
	AuthorizeURI string        `json:"authorize_uri,omitempty"`
}
