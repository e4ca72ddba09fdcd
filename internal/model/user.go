package model

import "time"

// UserRole represents the role of a user in the system
type UserRole string

const (
	UserRoleMember     UserRole = "member"     // Default role
	UserRoleRestaurant UserRole = "restaurant" // Owns restaurants and hosts events
	UserRoleAdmin      UserRole = "admin"      // Back-office: billing, contracts, flags
)

// Valid reports whether r is a known role
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleMember, UserRoleRestaurant, UserRoleAdmin:
		return true
	}
	return false
}

// Password and email limits
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxEmailLength    = 254
	MinNameLength     = 2
	MaxNameLength     = 50
)

// User represents a user account
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Hash      *string    `json:"-"` // Never expose password hash
	Firstname string     `json:"firstname"`
	Lastname  string     `json:"lastname"`
	Phone     *string    `json:"phone,omitempty"`
	Role      UserRole   `json:"role"`
	CreatedOn time.Time  `json:"created_on"`
	UpdatedOn time.Time  `json:"updated_on"`
	LoginOn   *time.Time `json:"login_on,omitempty"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// HasRole returns true if the user holds role. Admins hold every role.
func (u *User) HasRole(role UserRole) bool {
	return u.Role == role || u.Role == UserRoleAdmin
}

// DisplayName is the name used in emails and contracts
func (u *User) DisplayName() string {
	if u.Firstname == "" && u.Lastname == "" {
		return u.Email
	}
	if u.Lastname == "" {
		return u.Firstname
	}
	return u.Firstname + " " + u.Lastname
}

// RegisterRequest creates a member account directly (no paid plan)
type RegisterRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Firstname string  `json:"firstname"`
	Lastname  string  `json:"lastname"`
	Phone     *string `json:"phone,omitempty"`
}

// Validate checks if the register request is valid
func (r *RegisterRequest) Validate() []FieldError {
	return validateAccountFields(r.Email, r.Password, r.Firstname, r.Lastname)
}

func validateAccountFields(email, password, firstname, lastname string) []FieldError {
	var errors []FieldError

	errors = checkLength(errors, "firstname", firstname, MinNameLength, MaxNameLength)
	errors = checkLength(errors, "lastname", lastname, MinNameLength, MaxNameLength)

	if email == "" {
		errors = append(errors, FieldError{Field: "email", Message: "email is required"})
	} else if !IsValidEmail(NormalizeEmail(email)) {
		errors = append(errors, FieldError{Field: "email", Message: "email is not a valid address"})
	}

	switch {
	case password == "":
		errors = append(errors, FieldError{Field: "password", Message: "password is required"})
	case len(password) < MinPasswordLength:
		errors = append(errors, FieldError{Field: "password", Message: "password must be at least 8 characters"})
	case len(password) > MaxPasswordLength:
		errors = append(errors, FieldError{Field: "password", Message: "password must be 128 characters or less"})
	}

	return errors
}

// LoginRequest represents an email/password login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest exchanges a refresh token for a new token pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UpdateUserRoleRequest is used by admins to promote or demote a user
type UpdateUserRoleRequest struct {
	Role UserRole `json:"role"`
}

// Validate checks if the role update is valid
func (r *UpdateUserRoleRequest) Validate() []FieldError {
	if !r.Role.Valid() {
		return []FieldError{{Field: "role", Message: "role must be 'member', 'restaurant', or 'admin'"}}
	}
	return nil
}
