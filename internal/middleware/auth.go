package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/pkg/jwt"
)

// TokenValidator defines the interface for access token validation
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// Auth returns a middleware that rejects requests without a valid access token.
// Claims already placed by an outer OptionalAuth are reused.
func Auth(tokens TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetClaims(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}

			token, problem := bearerToken(r)
			if problem != nil {
				problem.WriteJSON(w)
				return
			}

			claims, err := tokens.ValidateAccessToken(token)
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					model.NewUnauthorizedError("token expired").WriteJSON(w)
				case errors.Is(err, jwt.ErrInvalidSignature):
					model.NewUnauthorizedError("invalid token signature").WriteJSON(w)
				default:
					model.NewUnauthorizedError("invalid token").WriteJSON(w)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth is like Auth but lets anonymous requests through.
// User info is set in context only when a valid token is present.
func OptionalAuth(tokens TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, problem := bearerToken(r)
			if problem != nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.ValidateAccessToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// RequireRole rejects authenticated requests whose token does not grant one
// of roles. Admin passes every gate. Must run after Auth.
func RequireRole(roles ...model.UserRole) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				model.NewUnauthorizedError("authentication required").WriteJSON(w)
				return
			}
			for _, role := range roles {
				if claims.HasRole(string(role)) {
					next.ServeHTTP(w, r)
					return
				}
			}
			model.NewForbiddenError("insufficient role").WriteJSON(w)
		})
	}
}

func bearerToken(r *http.Request) (string, *model.ProblemDetails) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", model.NewUnauthorizedError("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", model.NewUnauthorizedError("invalid authorization header format")
	}
	return parts[1], nil
}

func withClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
	ctx = context.WithValue(ctx, UserRoleKey, model.UserRole(claims.Role))
	return context.WithValue(ctx, ClaimsKey, claims)
}

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// UserEmailKey is the context key for user email
	UserEmailKey contextKey = "userEmail"
	// UserRoleKey is the context key for the user's role
	UserRoleKey contextKey = "userRole"
)

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetUserEmail extracts the user email from context
func GetUserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(UserEmailKey).(string); ok {
		return email
	}
	return ""
}

// GetUserRole extracts the user role from context
func GetUserRole(ctx context.Context) model.UserRole {
	if role, ok := ctx.Value(UserRoleKey).(model.UserRole); ok {
		return role
	}
	return ""
}

// GetClaims extracts the JWT claims from context
func GetClaims(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}

// WithUser returns a context carrying an authenticated user. Handler tests
// use it in place of a signed token.
func WithUser(ctx context.Context, userID string, role model.UserRole) context.Context {
	return withClaims(ctx, &jwt.Claims{UserID: userID, Role: string(role)})
}
