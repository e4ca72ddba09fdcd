package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/eatmeetclub/api/internal/middleware"
	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/service"
)

// DataResponse wraps a successful response with optional HATEOAS links
type DataResponse struct {
	Data  interface{}       `json:"data"`
	Links map[string]string `json:"_links,omitempty"`
}

// CollectionResponse wraps a collection response with pagination
type CollectionResponse struct {
	Data       interface{}       `json:"data"`
	Pagination *PaginationInfo   `json:"pagination,omitempty"`
	Links      map[string]string `json:"_links,omitempty"`
}

// PaginationInfo describes the limit/offset window that produced a page
type PaginationInfo struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// NewPagination builds pagination info for a page of results
func NewPagination(page model.Page, hasMore bool) *PaginationInfo {
	page = page.Normalize()
	return &PaginationInfo{Limit: page.Limit, Offset: page.Offset, HasMore: hasMore}
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes a successful data response
func WriteData(w http.ResponseWriter, status int, data interface{}, links map[string]string) {
	response := DataResponse{
		Data:  data,
		Links: links,
	}
	WriteJSON(w, status, response)
}

// WriteCollection writes a collection response with pagination
func WriteCollection(w http.ResponseWriter, status int, data interface{}, pagination *PaginationInfo, links map[string]string) {
	response := CollectionResponse{
		Data:       data,
		Pagination: pagination,
		Links:      links,
	}
	WriteJSON(w, status, response)
}

// WriteError writes an error response using RFC 9457 Problem Details
func WriteError(w http.ResponseWriter, err *model.ProblemDetails) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(err.Status)
	_ = json.NewEncoder(w).Encode(err)
}

// WriteServiceError maps a service error and writes it
func WriteServiceError(w http.ResponseWriter, err error) {
	WriteError(w, MapServiceError(err))
}

// DecodeJSON decodes a JSON request body into the given struct
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteNoContent writes a 204 No Content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// ParsePage reads limit and offset query parameters. Invalid values fall
// back to the defaults.
func ParsePage(r *http.Request) model.Page {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return model.Page{Limit: limit, Offset: offset}.Normalize()
}

// parseTimeParam reads an optional RFC 3339 or YYYY-MM-DD query parameter
func parseTimeParam(r *http.Request, name string) (*time.Time, *model.ProblemDetails) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return &t, nil
	}
	return nil, model.NewValidationError([]model.FieldError{
		{Field: name, Message: name + " must be a date (YYYY-MM-DD) or RFC 3339 timestamp"},
	})
}

// currentActor returns the authenticated caller. It writes a 401 and
// returns false when the request is anonymous.
func currentActor(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return service.Actor{}, false
	}
	return service.Actor{UserID: userID, Role: middleware.GetUserRole(r.Context())}, true
}

// optionalActor returns the caller when signed in, nil otherwise
func optionalActor(r *http.Request) *service.Actor {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		return nil
	}
	return &service.Actor{UserID: userID, Role: middleware.GetUserRole(r.Context())}
}
