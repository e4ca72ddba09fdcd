package helpers

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/pkg/jwt"
)

// ============================================================================
// JWT Helpers
// ============================================================================

// JWTHelper issues access tokens signed with an in-memory key
type JWTHelper struct {
	svc *jwt.Service
}

// NewJWTHelper creates a helper with a fresh RSA key
func NewJWTHelper(t *testing.T) *JWTHelper {
	t.Helper()
	return &JWTHelper{svc: NewTestJWTService(t)}
}

// Validator is the service that accepts tokens minted by this helper
func (h *JWTHelper) Validator() *jwt.Service {
	return h.svc
}

// GenerateToken signs a token carrying the user's ID, email and role
func (h *JWTHelper) GenerateToken(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := h.svc.Sign(claimsFor(user))
	require.NoError(t, err, "helpers: sign token")
	return token
}

// GenerateExpiredToken signs a token that expired an hour ago
func (h *JWTHelper) GenerateExpiredToken(t *testing.T, user *model.User) string {
	t.Helper()
	claims := claimsFor(user)
	claims.ExpiresAt = gojwt.NewNumericDate(time.Now().Add(-time.Hour))
	token, err := h.svc.Sign(claims)
	require.NoError(t, err, "helpers: sign token")
	return token
}

func claimsFor(user *model.User) jwt.Claims {
	return jwt.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	}
}

// NewTestJWTService creates a JWT service with an in-memory key
func NewTestJWTService(t *testing.T) *jwt.Service {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err, "helpers: generate RSA key")
	return jwt.NewTestService(key, "eatmeetclub-test", 15*time.Minute)
}

// ============================================================================
// HTTP Request Helpers
// ============================================================================

// RequestBuilder assembles a request for a router under test
type RequestBuilder struct {
	t       *testing.T
	method  string
	path    string
	body    interface{}
	headers map[string]string
	tokens  *JWTHelper
	user    *model.User
}

// NewRequest starts building a request
func NewRequest(t *testing.T, method, path string) *RequestBuilder {
	t.Helper()
	return &RequestBuilder{t: t, method: method, path: path, headers: map[string]string{}}
}

// WithBody sets a body to be JSON encoded
func (rb *RequestBuilder) WithBody(body interface{}) *RequestBuilder {
	rb.body = body
	return rb
}

// WithHeader adds a header
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.headers[key] = value
	return rb
}

// WithIdempotencyKey sets the Idempotency-Key header
func (rb *RequestBuilder) WithIdempotencyKey(key string) *RequestBuilder {
	return rb.WithHeader("Idempotency-Key", key)
}

// WithAuth signs the request as user
func (rb *RequestBuilder) WithAuth(tokens *JWTHelper, user *model.User) *RequestBuilder {
	rb.tokens = tokens
	rb.user = user
	return rb
}

// Build creates the request
func (rb *RequestBuilder) Build() *http.Request {
	rb.t.Helper()

	var body io.Reader
	if rb.body != nil {
		b, err := json.Marshal(rb.body)
		require.NoError(rb.t, err, "helpers: marshal body")
		body = bytes.NewReader(b)
	}

	req := httptest.NewRequest(rb.method, rb.path, body)
	if rb.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range rb.headers {
		req.Header.Set(k, v)
	}
	if rb.tokens != nil && rb.user != nil {
		req.Header.Set("Authorization", "Bearer "+rb.tokens.GenerateToken(rb.t, rb.user))
	}
	return req
}

// Do builds the request and serves it through h
func (rb *RequestBuilder) Do(h http.Handler) *httptest.ResponseRecorder {
	rb.t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, rb.Build())
	return rr
}

// ============================================================================
// Response Assertion Helpers
// ============================================================================

// AssertStatus checks the status code and shows the body on mismatch
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "body: %s", rr.Body.String())
}

// AssertProblemDetails checks an RFC 9457 error response. A zero code skips
// the code check.
func AssertProblemDetails(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, expectedCode model.ErrorCode) {
	t.Helper()

	AssertStatus(t, rr, expectedStatus)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

	var problem model.ProblemDetails
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem), "body: %s", rr.Body.String())
	assert.Equal(t, expectedStatus, problem.Status)
	if expectedCode != 0 {
		assert.Equal(t, expectedCode, problem.Code)
	}
}

// AssertValidationError checks for a 422 naming field
func AssertValidationError(t *testing.T, rr *httptest.ResponseRecorder, field string) {
	t.Helper()

	AssertStatus(t, rr, http.StatusUnprocessableEntity)

	var problem model.ProblemDetails
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))

	fields := make([]string, 0, len(problem.Errors))
	for _, fe := range problem.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, field)
}

// DecodeData decodes the "data" member of a success envelope into v
func DecodeData(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope), "body: %s", rr.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, v))
}

// ============================================================================
// Database Assertion Helpers
// ============================================================================

// AssertRecordExists checks that table:id exists
func AssertRecordExists(t *testing.T, db database.Database, table, id string) {
	t.Helper()
	assert.True(t, recordExists(t, db, table, id), "expected %s:%s to exist", table, recordPart(id))
}

// AssertRecordNotExists checks that table:id is gone
func AssertRecordNotExists(t *testing.T, db database.Database, table, id string) {
	t.Helper()
	assert.False(t, recordExists(t, db, table, id), "expected %s:%s to be gone", table, recordPart(id))
}

func recordExists(t *testing.T, db database.Database, table, id string) bool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := db.QueryOne(ctx, "SELECT * FROM type::record($table, $id)", map[string]interface{}{
		"table": table,
		"id":    recordPart(id),
	})
	if err == nil {
		return true
	}
	if errors.Is(err, database.ErrNotFound) {
		return false
	}
	require.NoError(t, err, "helpers: look up record")
	return false
}

// recordPart strips the table prefix from a full record ID
func recordPart(id string) string {
	if _, rest, ok := strings.Cut(id, ":"); ok {
		return rest
	}
	return id
}

// ============================================================================
// Pointer Helpers
// ============================================================================

// StringPtr returns a pointer to s
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to i
func IntPtr(i int) *int { return &i }

// Int64Ptr returns a pointer to i
func Int64Ptr(i int64) *int64 { return &i }

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool { return &b }

// TimePtr returns a pointer to t
func TimePtr(t time.Time) *time.Time { return &t }
