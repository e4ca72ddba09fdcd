package model

import (
	"regexp"
	"time"
)

var flagKeyPattern = regexp.MustCompile(`^[a-z0-9_.-]{2,64}$`)

// Flags that switch whole route groups on and off
const (
	FlagSignup   = "signup"
	FlagMemories = "memories"
)

// IsValidFlagKey reports whether key is a well-formed flag key
func IsValidFlagKey(key string) bool {
	return flagKeyPattern.MatchString(key)
}

// FeatureFlag toggles a product feature at runtime
type FeatureFlag struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Enabled     bool      `json:"enabled"`
	Description *string   `json:"description,omitempty"`
	CreatedOn   time.Time `json:"created_on"`
	UpdatedOn   time.Time `json:"updated_on"`
}

// CreateFlagRequest represents a new flag
type CreateFlagRequest struct {
	Key         string  `json:"key"`
	Enabled     bool    `json:"enabled"`
	Description *string `json:"description,omitempty"`
}

// Validate checks if the create request is valid
func (r *CreateFlagRequest) Validate() []FieldError {
	var errors []FieldError
	if !IsValidFlagKey(r.Key) {
		errors = append(errors, FieldError{Field: "key", Message: "key must be 2-64 characters of a-z, 0-9, '_', '.', '-'"})
	}
	if r.Description != nil {
		errors = checkLength(errors, "description", *r.Description, 0, 500)
	}
	return errors
}

// UpdateFlagRequest represents a partial update
type UpdateFlagRequest struct {
	Enabled     *bool   `json:"enabled,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Validate checks if the update request is valid
func (r *UpdateFlagRequest) Validate() []FieldError {
	if r.Description != nil {
		return checkLength(nil, "description", *r.Description, 0, 500)
	}
	return nil
}
