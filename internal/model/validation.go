package model

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail checks the basic shape of an email address
func IsValidEmail(email string) bool {
	return len(email) <= MaxEmailLength && emailPattern.MatchString(email)
}

// IsHTTPURL reports whether s is an absolute http or https URL.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// checkLength appends an error when value is outside [min, max] runes.
// A zero min means the field is optional.
func checkLength(errs []FieldError, field, value string, min, max int) []FieldError {
	n := runeLen(strings.TrimSpace(value))
	switch {
	case min > 0 && n == 0:
		return append(errs, FieldError{Field: field, Message: field + " is required"})
	case n < min:
		return append(errs, FieldError{Field: field, Message: field + " must be at least " + strconv.Itoa(min) + " characters"})
	case max > 0 && n > max:
		return append(errs, FieldError{Field: field, Message: field + " must be " + strconv.Itoa(max) + " characters or less"})
	}
	return errs
}

func checkOptionalURL(errs []FieldError, field string, value *string) []FieldError {
	if value != nil && *value != "" && !IsHTTPURL(*value) {
		return append(errs, FieldError{Field: field, Message: field + " must be an http or https URL"})
	}
	return errs
}

// Page is a limit/offset window over a list.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize clamps the window to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
