package model

// Channel constants
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Notification is the queued message the notifier worker delivers
type Notification struct {
	Channel  string  `json:"channel"`
	To       string  `json:"to"`
	Subject  string  `json:"subject,omitempty"`
	Body     string  `json:"body"`
	Template *string `json:"template,omitempty"`
}

// Validate checks a notification before publishing or delivering it
func (n *Notification) Validate() []FieldError {
	var errors []FieldError
	switch n.Channel {
	case ChannelEmail:
		if !IsValidEmail(n.To) {
			errors = append(errors, FieldError{Field: "to", Message: "to must be an email address"})
		}
	case ChannelSMS:
		if n.To == "" {
			errors = append(errors, FieldError{Field: "to", Message: "to is required"})
		}
		if runeLen(n.Body) > MaxSMSBodyLength {
			errors = append(errors, FieldError{Field: "body", Message: "body is too long for sms"})
		}
	default:
		errors = append(errors, FieldError{Field: "channel", Message: "channel must be 'email' or 'sms'"})
	}
	if n.Body == "" {
		errors = append(errors, FieldError{Field: "body", Message: "body is required"})
	}
	return errors
}

// SendNotificationRequest is an admin-triggered templated message to a user
type SendNotificationRequest struct {
	UserID     string         `json:"user_id"`
	TemplateID string         `json:"template_id"`
	Vars       map[string]any `json:"vars,omitempty"`
}

// Validate checks if the send request is valid
func (r *SendNotificationRequest) Validate() []FieldError {
	var errors []FieldError
	if r.UserID == "" {
		errors = append(errors, FieldError{Field: "user_id", Message: "user_id is required"})
	}
	if r.TemplateID == "" {
		errors = append(errors, FieldError{Field: "template_id", Message: "template_id is required"})
	}
	return errors
}
