// Package config manages application configuration for the EatMeetClub API.
//
// Configuration is read from environment variables with envconfig. Each
// group maps to a variable prefix:
//
//	SERVER_*   HTTP server (port, env, timeouts, public URL)
//	DB_*       SurrealDB connection
//	JWT_*      access token signing keys and expiry
//	OMISE_*    payment processor keys, currency and return path
//	RABBIT_*   notification queue
//	SMTP_*     email delivery (notifier worker)
//	OTEL_*     tracing export
//	JOBS_*     background job intervals
//	FLAGS_*    feature flag cache
//
// CORS_ALLOWED_ORIGINS is accepted without the SERVER_ prefix.
//
// Load never fails on missing optional values; call Validate to get every
// problem at once:
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
package config
