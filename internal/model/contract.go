package model

import "time"

// ContractStatus constants
const (
	ContractStatusDraft  = "draft"
	ContractStatusSent   = "sent"
	ContractStatusSigned = "signed"
	ContractStatusVoid   = "void"
)

// Contract is a partnership agreement between the club and a restaurant.
// Body is rendered from a template when the contract is created and never
// re-rendered afterwards.
type Contract struct {
	ID           string     `json:"id"`
	RestaurantID string     `json:"restaurant_id"`
	TemplateID   string     `json:"template_id"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	Status       string     `json:"status"`
	SignerName   *string    `json:"signer_name,omitempty"`
	SentOn       *time.Time `json:"sent_on,omitempty"`
	SignedOn     *time.Time `json:"signed_on,omitempty"`
	CreatedBy    string     `json:"created_by"`
	CreatedOn    time.Time  `json:"created_on"`
	UpdatedOn    time.Time  `json:"updated_on"`
}

// CreateContractRequest drafts a contract from a template
type CreateContractRequest struct {
	RestaurantID string         `json:"restaurant_id"`
	TemplateID   string         `json:"template_id"`
	Title        string         `json:"title"`
	Vars         map[string]any `json:"vars,omitempty"`
}

// Validate checks if the create request is valid
func (r *CreateContractRequest) Validate() []FieldError {
	var errors []FieldError
	if r.RestaurantID == "" {
		errors = append(errors, FieldError{Field: "restaurant_id", Message: "restaurant_id is required"})
	}
	if r.TemplateID == "" {
		errors = append(errors, FieldError{Field: "template_id", Message: "template_id is required"})
	}
	errors = checkLength(errors, "title", r.Title, 3, 200)
	return errors
}

// SignContractRequest is submitted by the restaurant owner
type SignContractRequest struct {
	SignerName string `json:"signer_name"`
}

// Validate checks if the sign request is valid
func (r *SignContractRequest) Validate() []FieldError {
	return checkLength(nil, "signer_name", r.SignerName, 2, 100)
}
