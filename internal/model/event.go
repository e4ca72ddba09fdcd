package model

import "time"

// DiningEvent is a ticketed meal hosted by a restaurant.
// Price is per seat in minor units of Currency.
type DiningEvent struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	City         string    `json:"city"` // copied from the restaurant for discovery
	Title        string    `json:"title"`
	Description  *string   `json:"description,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Price        int64     `json:"price"`
	Currency     string    `json:"currency"`
	Capacity     int       `json:"capacity"`
	SeatsSold    int       `json:"seats_sold"`
	ImageURL     *string   `json:"image_url,omitempty"`
	MenuItemIDs  []string  `json:"menu_item_ids,omitempty"`
	Status       string    `json:"status"`
	CreatedBy    string    `json:"created_by"`
	CreatedOn    time.Time `json:"created_on"`
	UpdatedOn    time.Time `json:"updated_on"`
}

// EventStatus constants
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
	EventStatusCompleted = "completed"
)

const (
	MinEventTitleLength = 3
	MaxEventTitleLength = 100
	MaxEventDescLength  = 2000
	MaxEventCapacity    = 500
)

// RemainingSeats never goes below zero
func (e *DiningEvent) RemainingSeats() int {
	if n := e.Capacity - e.SeatsSold; n > 0 {
		return n
	}
	return 0
}

// IsUpcoming reports whether the event has not started yet
func (e *DiningEvent) IsUpcoming(now time.Time) bool {
	return e.StartTime.After(now)
}

// IsOnSale reports whether tickets can be bought right now
func (e *DiningEvent) IsOnSale(now time.Time) bool {
	return e.Status == EventStatusPublished && e.IsUpcoming(now)
}

// DiningEventView adds computed fields for API responses
type DiningEventView struct {
	*DiningEvent
	RemainingSeats int `json:"remaining_seats"`
}

// NewDiningEventView wraps an event for output
func NewDiningEventView(e *DiningEvent) *DiningEventView {
	return &DiningEventView{DiningEvent: e, RemainingSeats: e.RemainingSeats()}
}

// CreateDiningEventRequest schedules a new event (created as draft)
type CreateDiningEventRequest struct {
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Price       int64     `json:"price"`
	Currency    string    `json:"currency,omitempty"` // defaults to the configured currency
	Capacity    int       `json:"capacity"`
	ImageURL    *string   `json:"image_url,omitempty"`
	MenuItemIDs []string  `json:"menu_item_ids,omitempty"`
}

// Validate checks if the create request is valid
func (r *CreateDiningEventRequest) Validate() []FieldError {
	var errors []FieldError

	errors = checkLength(errors, "title", r.Title, MinEventTitleLength, MaxEventTitleLength)
	if r.Description != nil {
		errors = checkLength(errors, "description", *r.Description, 0, MaxEventDescLength)
	}
	if r.StartTime.IsZero() {
		errors = append(errors, FieldError{Field: "start_time", Message: "start_time is required"})
	}
	if r.EndTime.IsZero() {
		errors = append(errors, FieldError{Field: "end_time", Message: "end_time is required"})
	} else if !r.StartTime.IsZero() && !r.EndTime.After(r.StartTime) {
		errors = append(errors, FieldError{Field: "end_time", Message: "end_time must be after start_time"})
	}
	if r.Price < 0 {
		errors = append(errors, FieldError{Field: "price", Message: "price must not be negative"})
	}
	if r.Currency != "" && len(r.Currency) != 3 {
		errors = append(errors, FieldError{Field: "currency", Message: "currency must be a 3-letter code"})
	}
	if r.Capacity <= 0 {
		errors = append(errors, FieldError{Field: "capacity", Message: "capacity must be positive"})
	} else if r.Capacity > MaxEventCapacity {
		errors = append(errors, FieldError{Field: "capacity", Message: "capacity must be 500 or less"})
	}
	errors = checkOptionalURL(errors, "image_url", r.ImageURL)

	return errors
}

// UpdateDiningEventRequest represents a partial update
type UpdateDiningEventRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Price       *int64     `json:"price,omitempty"`
	Capacity    *int       `json:"capacity,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	MenuItemIDs []string   `json:"menu_item_ids,omitempty"`
}

// Validate checks if the update request is valid
func (r *UpdateDiningEventRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Title != nil {
		errors = checkLength(errors, "title", *r.Title, MinEventTitleLength, MaxEventTitleLength)
	}
	if r.Description != nil {
		errors = checkLength(errors, "description", *r.Description, 0, MaxEventDescLength)
	}
	if r.StartTime != nil && r.EndTime != nil && !r.EndTime.After(*r.StartTime) {
		errors = append(errors, FieldError{Field: "end_time", Message: "end_time must be after start_time"})
	}
	if r.Price != nil && *r.Price < 0 {
		errors = append(errors, FieldError{Field: "price", Message: "price must not be negative"})
	}
	if r.Capacity != nil && (*r.Capacity <= 0 || *r.Capacity > MaxEventCapacity) {
		errors = append(errors, FieldError{Field: "capacity", Message: "capacity must be between 1 and 500"})
	}
	errors = checkOptionalURL(errors, "image_url", r.ImageURL)

	return errors
}

// DiningEventFilter narrows event discovery. Only published, upcoming
// events are returned unless IncludeAll is set (owner dashboards).
type DiningEventFilter struct {
	City         string
	RestaurantID string
	From         *time.Time
	To           *time.Time
	MaxPrice     *int64
	IncludeAll   bool
	Page         Page
}
