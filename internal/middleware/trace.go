package middleware

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/eatmeetclub/api/internal/middleware"

const routeKey contextKey = "route"

// route holds the pattern the mux matched. Middleware between Trace and the
// mux hands copies of the request down, so the mux's own write to
// Request.Pattern never reaches Trace.
type route struct {
	pattern string
}

// RecordRoute wraps the mux so the matched pattern is reported to Trace.
func RecordRoute(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if rt, ok := r.Context().Value(routeKey).(*route); ok && r.Pattern != "" {
			rt.pattern = r.Pattern
		}
	})
}

// Trace opens a server span per request, continuing any trace context the
// caller propagated. With no provider registered the global no-op tracer
// makes this free.
func Trace(next http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
				attribute.String("request.id", GetRequestID(r.Context())),
			),
		)
		defer span.End()

		rt := &route{}
		ctx = context.WithValue(ctx, routeKey, rt)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		req := r.WithContext(ctx)
		next.ServeHTTP(wrapped, req)

		pattern := rt.pattern
		if pattern == "" {
			pattern = req.Pattern
		}
		if pattern != "" {
			span.SetName(pattern)
			span.SetAttributes(attribute.String("http.route", pattern))
		}
		span.SetAttributes(attribute.Int("http.response.status_code", wrapped.statusCode))
		if wrapped.statusCode >= 500 {
			span.SetStatus(codes.Error, http.StatusText(wrapped.statusCode))
		}
	})
}
