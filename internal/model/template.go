package model

import "time"

// TemplateKind constants
const (
	TemplateKindContract = "contract"
	TemplateKindEmail    = "email"
	TemplateKindSMS      = "sms"
)

// Template is an admin-managed text template in text/template syntax
type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Subject   *string   `json:"subject,omitempty"`
	Body      string    `json:"body"`
	CreatedBy string    `json:"created_by"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

const (
	MaxTemplateNameLength = 100
	MaxTemplateBodyLength = 50000
	MaxSMSBodyLength      = 480
)

func validTemplateKind(kind string) bool {
	return kind == TemplateKindContract || kind == TemplateKindEmail || kind == TemplateKindSMS
}

// CreateTemplateRequest represents a new template
type CreateTemplateRequest struct {
	Name    string  `json:"name"`
	Kind    string  `json:"kind"`
	Subject *string `json:"subject,omitempty"`
	Body    string  `json:"body"`
}

// Validate checks the fields. Template syntax is checked by the service.
func (r *CreateTemplateRequest) Validate() []FieldError {
	var errors []FieldError

	errors = checkLength(errors, "name", r.Name, 2, MaxTemplateNameLength)
	if !validTemplateKind(r.Kind) {
		errors = append(errors, FieldError{Field: "kind", Message: "kind must be 'contract', 'email', or 'sms'"})
	}
	if r.Kind == TemplateKindEmail && (r.Subject == nil || *r.Subject == "") {
		errors = append(errors, FieldError{Field: "subject", Message: "subject is required for email templates"})
	}
	errors = checkLength(errors, "body", r.Body, 1, MaxTemplateBodyLength)

	return errors
}

// UpdateTemplateRequest represents a partial update
type UpdateTemplateRequest struct {
	Name    *string `json:"name,omitempty"`
	Subject *string `json:"subject,omitempty"`
	Body    *string `json:"body,omitempty"`
}

// Validate checks if the update request is valid
func (r *UpdateTemplateRequest) Validate() []FieldError {
	var errors []FieldError
	if r.Name != nil {
		errors = checkLength(errors, "name", *r.Name, 2, MaxTemplateNameLength)
	}
	if r.Body != nil {
		errors = checkLength(errors, "body", *r.Body, 1, MaxTemplateBodyLength)
	}
	return errors
}

// RenderRequest previews a template with variables
type RenderRequest struct {
	Vars map[string]any `json:"vars"`
}

// RenderedTemplate is the output of executing a template
type RenderedTemplate struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}
