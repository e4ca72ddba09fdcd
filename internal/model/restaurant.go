package model

import "time"

// Restaurant validation limits
const (
	MaxRestaurantNameLength = 100
	MaxRestaurantDescLength = 2000
)

// RestaurantStatus constants
const (
	RestaurantStatusActive   = "active"
	RestaurantStatusInactive = "inactive"
)

// Restaurant is a venue that hosts dining events
type Restaurant struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Cuisine     string    `json:"cuisine"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Phone       *string   `json:"phone,omitempty"`
	Website     *string   `json:"website,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Status      string    `json:"status"`
	CreatedOn   time.Time `json:"created_on"`
	UpdatedOn   time.Time `json:"updated_on"`
}

// IsOwnedBy reports whether userID owns the restaurant
func (r *Restaurant) IsOwnedBy(userID string) bool {
	return r.OwnerID == userID
}

// CreateRestaurantRequest represents a request to list a restaurant
type CreateRestaurantRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Cuisine     string  `json:"cuisine"`
	Address     string  `json:"address"`
	City        string  `json:"city"`
	Phone       *string `json:"phone,omitempty"`
	Website     *string `json:"website,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	// OwnerID lets an admin list a restaurant on behalf of an owner
	OwnerID *string `json:"owner_id,omitempty"`
}

// Validate checks if the create request is valid
func (r *CreateRestaurantRequest) Validate() []FieldError {
	var errors []FieldError

	errors = checkLength(errors, "name", r.Name, 2, MaxRestaurantNameLength)
	if r.Description != nil {
		errors = checkLength(errors, "description", *r.Description, 0, MaxRestaurantDescLength)
	}
	errors = checkLength(errors, "cuisine", r.Cuisine, 1, 50)
	errors = checkLength(errors, "address", r.Address, 1, 200)
	errors = checkLength(errors, "city", r.City, 1, 100)
	errors = checkOptionalURL(errors, "website", r.Website)
	errors = checkOptionalURL(errors, "image_url", r.ImageURL)

	return errors
}

// UpdateRestaurantRequest represents a partial update
type UpdateRestaurantRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Cuisine     *string `json:"cuisine,omitempty"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Website     *string `json:"website,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// Validate checks if the update request is valid
func (r *UpdateRestaurantRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Name != nil {
		errors = checkLength(errors, "name", *r.Name, 2, MaxRestaurantNameLength)
	}
	if r.Description != nil {
		errors = checkLength(errors, "description", *r.Description, 0, MaxRestaurantDescLength)
	}
	if r.Cuisine != nil {
		errors = checkLength(errors, "cuisine", *r.Cuisine, 1, 50)
	}
	if r.Address != nil {
		errors = checkLength(errors, "address", *r.Address, 1, 200)
	}
	if r.City != nil {
		errors = checkLength(errors, "city", *r.City, 1, 100)
	}
	errors = checkOptionalURL(errors, "website", r.Website)
	errors = checkOptionalURL(errors, "image_url", r.ImageURL)
	if r.Status != nil && *r.Status != RestaurantStatusActive && *r.Status != RestaurantStatusInactive {
		errors = append(errors, FieldError{Field: "status", Message: "status must be 'active' or 'inactive'"})
	}

	return errors
}

// RestaurantFilter narrows restaurant listings
type RestaurantFilter struct {
	City    string
	Cuisine string
	Status  string
	OwnerID string
	Page    Page
}
