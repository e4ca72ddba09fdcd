package model

import "time"

// MenuItem is a dish offered by a restaurant. Price is in minor units.
type MenuItem struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Price        int64     `json:"price"`
	Category     string    `json:"category"`
	DietaryTags  []string  `json:"dietary_tags"`
	Available    bool      `json:"available"`
	CreatedOn    time.Time `json:"created_on"`
	UpdatedOn    time.Time `json:"updated_on"`
}

const (
	MaxMenuItemNameLength = 100
	MaxMenuItemDescLength = 500
	MaxDietaryTags        = 10
)

// CreateMenuItemRequest adds a dish to a restaurant menu
type CreateMenuItemRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Price       int64    `json:"price"`
	Category    string   `json:"category"`
	DietaryTags []string `json:"dietary_tags,omitempty"`
	Available   *bool    `json:"available,omitempty"` // defaults to true
}

// Validate checks if the create request is valid
func (r *CreateMenuItemRequest) Validate() []FieldError {
	var errors []FieldError

	errors = checkLength(errors, "name", r.Name, 2, MaxMenuItemNameLength)
	if r.Description != nil {
		errors = checkLength(errors, "description", *r.Description, 0, MaxMenuItemDescLength)
	}
	if r.Price < 0 {
		errors = append(errors, FieldError{Field: "price", Message: "price must not be negative"})
	}
	errors = checkLength(errors, "category", r.Category, 1, 50)
	if len(r.DietaryTags) > MaxDietaryTags {
		errors = append(errors, FieldError{Field: "dietary_tags", Message: "at most 10 dietary tags"})
	}

	return errors
}

// UpdateMenuItemRequest represents a partial update
type UpdateMenuItemRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *int64   `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
	DietaryTags []string `json:"dietary_tags,omitempty"`
	Available   *bool    `json:"available,omitempty"`
}

// Validate checks if the update request is valid
func (r *UpdateMenuItemRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Name != nil {
		errors = checkLength(errors, "name", *r.Name, 2, MaxMenuItemNameLength)
	}
	if r.Description != nil {
		errors = checkLength(errors, "description", *r.Description, 0, MaxMenuItemDescLength)
	}
	if r.Price != nil && *r.Price < 0 {
		errors = append(errors, FieldError{Field: "price", Message: "price must not be negative"})
	}
	if r.Category != nil {
		errors = checkLength(errors, "category", *r.Category, 1, 50)
	}
	if len(r.DietaryTags) > MaxDietaryTags {
		errors = append(errors, FieldError{Field: "dietary_tags", Message: "at most 10 dietary tags"})
	}

	return errors
}
