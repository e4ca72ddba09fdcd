package middleware

import (
	"context"
	"net/http"

	"github.com/eatmeetclub/api/internal/model"
)

// FlagChecker answers whether a feature is switched on
type FlagChecker interface {
	IsEnabled(ctx context.Context, key string) bool
}

// RequireFlag answers 404 while the feature behind key is switched off, so
// the route looks absent to clients.
func RequireFlag(flags FlagChecker, key string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !flags.IsEnabled(r.Context(), key) {
				model.NewNotFoundError("feature " + key).WriteJSON(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
