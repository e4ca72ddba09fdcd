package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/pkg/jwt"
)

// ============================================================================
// Mock TokenValidator
// ============================================================================

type mockTokenValidator struct {
	validateFunc func(token string) (*jwt.Claims, error)
	seen         string
}

func (m *mockTokenValidator) ValidateAccessToken(token string) (*jwt.Claims, error) {
	m.seen = token
	return m.validateFunc(token)
}

func validTokens(userID string, role model.UserRole) *mockTokenValidator {
	return &mockTokenValidator{
		validateFunc: func(token string) (*jwt.Claims, error) {
			return &jwt.Claims{UserID: userID, Email: "diner@example.com", Role: string(role)}, nil
		},
	}
}

func failingTokens(err error) *mockTokenValidator {
	return &mockTokenValidator{
		validateFunc: func(token string) (*jwt.Claims, error) {
			return nil, err
		},
	}
}

// captureHandler records whether it ran and the context it saw.
type captureHandler struct {
	called bool
	ctx    context.Context
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

func authedRequest(header string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/v1/tickets", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	return req
}

func problemDetail(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var p model.ProblemDetails
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&p))
	return p.Detail
}

// ============================================================================
// Auth Tests
// ============================================================================

func TestAuth_ValidToken_SetsContext(t *testing.T) {
	t.Parallel()

	tokens := validTokens("user:1", model.UserRoleRestaurant)
	next := &captureHandler{}
	rr := httptest.NewRecorder()
	Auth(tokens)(next).ServeHTTP(rr, authedRequest("Bearer abc.def.ghi"))

	require.True(t, next.called)
	assert.Equal(t, "abc.def.ghi", tokens.seen)
	assert.Equal(t, "user:1", GetUserID(next.ctx))
	assert.Equal(t, "diner@example.com", GetUserEmail(next.ctx))
	assert.Equal(t, model.UserRoleRestaurant, GetUserRole(next.ctx))
	require.NotNil(t, GetClaims(next.ctx))
}

func TestAuth_LowercaseScheme_Accepted(t *testing.T) {
	t.Parallel()

	next := &captureHandler{}
	Auth(validTokens("user:1", model.UserRoleMember))(next).ServeHTTP(httptest.NewRecorder(), authedRequest("bearer tok"))
	assert.True(t, next.called)
}

func TestAuth_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		err    error
		detail string
	}{
		{"missing header", "", nil, "missing authorization header"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", nil, "invalid authorization header format"},
		{"empty token", "Bearer ", nil, "invalid authorization header format"},
		{"expired", "Bearer t", jwt.ErrTokenExpired, "token expired"},
		{"bad signature", "Bearer t", fmt.Errorf("parse: %w", jwt.ErrInvalidSignature), "invalid token signature"},
		{"garbage", "Bearer t", jwt.ErrInvalidToken, "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tokens := validTokens("user:1", model.UserRoleMember)
			if tt.err != nil {
				tokens = failingTokens(tt.err)
			}
			next := &captureHandler{}
			rr := httptest.NewRecorder()
			Auth(tokens)(next).ServeHTTP(rr, authedRequest(tt.header))

			assert.False(t, next.called)
			require.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, tt.detail, problemDetail(t, rr))
		})
	}
}

// ============================================================================
// OptionalAuth Tests
// ============================================================================

func TestOptionalAuth_Anonymous_PassesThrough(t *testing.T) {
	t.Parallel()

	next := &captureHandler{}
	OptionalAuth(validTokens("user:1", model.UserRoleMember))(next).ServeHTTP(httptest.NewRecorder(), authedRequest(""))

	require.True(t, next.called)
	assert.Empty(t, GetUserID(next.ctx))
}

func TestOptionalAuth_InvalidToken_TreatedAsAnonymous(t *testing.T) {
	t.Parallel()

	next := &captureHandler{}
	rr := httptest.NewRecorder()
	OptionalAuth(failingTokens(jwt.ErrTokenExpired))(next).ServeHTTP(rr, authedRequest("Bearer old"))

	require.True(t, next.called)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, GetClaims(next.ctx))
}

func TestOptionalAuth_ValidToken_SetsUser(t *testing.T) {
	t.Parallel()

	next := &captureHandler{}
	OptionalAuth(validTokens("user:7", model.UserRoleMember))(next).ServeHTTP(httptest.NewRecorder(), authedRequest("Bearer ok"))

	assert.Equal(t, "user:7", GetUserID(next.ctx))
}

// ============================================================================
// RequireRole Tests
// ============================================================================

func TestRequireRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		role    model.UserRole
		allowed []model.UserRole
		status  int
	}{
		{"member on member route", model.UserRoleMember, []model.UserRole{model.UserRoleMember}, http.StatusOK},
		{"member on restaurant route", model.UserRoleMember, []model.UserRole{model.UserRoleRestaurant}, http.StatusForbidden},
		{"restaurant among several", model.UserRoleRestaurant, []model.UserRole{model.UserRoleMember, model.UserRoleRestaurant}, http.StatusOK},
		{"admin passes restaurant gate", model.UserRoleAdmin, []model.UserRole{model.UserRoleRestaurant}, http.StatusOK},
		{"admin on admin route", model.UserRoleAdmin, []model.UserRole{model.UserRoleAdmin}, http.StatusOK},
		{"restaurant on admin route", model.UserRoleRestaurant, []model.UserRole{model.UserRoleAdmin}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			next := &captureHandler{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithUser(req.Context(), "user:1", tt.role))
			rr := httptest.NewRecorder()
			RequireRole(tt.allowed...)(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.status == http.StatusOK, next.called)
		})
	}
}

func TestRequireRole_NoClaims_ReturnsUnauthorized(t *testing.T) {
	t.Parallel()

	next := &captureHandler{}
	rr := httptest.NewRecorder()
	RequireRole(model.UserRoleAdmin)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, next.called)
}

func TestRequireRole_ChainedAfterAuth(t *testing.T) {
	t.Parallel()

	next := &captureHandler{}
	h := Chain(next, Auth(validTokens("user:1", model.UserRoleMember)), RequireRole(model.UserRoleAdmin))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authedRequest("Bearer ok"))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "insufficient role", problemDetail(t, rr))
}

// ============================================================================
// Context Getter Tests
// ============================================================================

func TestGetters_EmptyContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Empty(t, GetUserID(ctx))
	assert.Empty(t, GetUserEmail(ctx))
	assert.Empty(t, GetUserRole(ctx))
	assert.Nil(t, GetClaims(ctx))
}

func TestGetUserID_WrongType(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), UserIDKey, 42)
	assert.Empty(t, GetUserID(ctx))
}
