package model

import "time"

const MaxMemoryCaptionLength = 500

// Memory is a photo and short story shared after an event
type Memory struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	AuthorID  string    `json:"author_id"`
	Caption   string    `json:"caption"`
	ImageURL  string    `json:"image_url"`
	CreatedOn time.Time `json:"created_on"`
}

// CreateMemoryRequest shares a memory. The image is uploaded elsewhere;
// only its URL is stored.
type CreateMemoryRequest struct {
	Caption  string `json:"caption"`
	ImageURL string `json:"image_url"`
}

// Validate checks if the create request is valid
func (r *CreateMemoryRequest) Validate() []FieldError {
	var errors []FieldError
	errors = checkLength(errors, "caption", r.Caption, 0, MaxMemoryCaptionLength)
	if r.ImageURL == "" {
		errors = append(errors, FieldError{Field: "image_url", Message: "image_url is required"})
	} else if !IsHTTPURL(r.ImageURL) {
		errors = append(errors, FieldError{Field: "image_url", Message: "image_url must be an http or https URL"})
	}
	return errors
}
