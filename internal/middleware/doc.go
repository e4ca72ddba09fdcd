// Package middleware provides the HTTP middleware stack for the EatMeetClub API.
//
// The server wraps its mux in a fixed chain:
//
//	RequestID -> Trace -> Logger -> Recovery -> CORS -> Compress ->
//	OptionalAuth -> RateLimit -> Idempotency -> RecordRoute(mux)
//
// OptionalAuth runs globally so the limiter and the idempotency store can key
// on the caller. Individual routes then add Auth and RequireRole:
//
//	mux.Handle("GET /v1/admin/billing", middleware.Chain(h, auth, middleware.RequireRole(model.UserRoleAdmin)))
//
// Handlers read the caller through GetUserID, GetUserRole and GetClaims.
// Tests place a caller directly with WithUser.
package middleware
