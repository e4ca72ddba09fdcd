package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/eatmeetclub/api/internal/database")

// SurrealDB implements Database over a websocket connection
type SurrealDB struct {
	db     *surrealdb.DB
	config Config
}

// NewSurrealDB creates an unconnected client; call Connect before use.
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{config: cfg}
}

// Connect dials the server, signs in and selects the namespace/database.
func (s *SurrealDB) Connect(ctx context.Context) error {
	endpoint := fmt.Sprintf("ws://%s:%s", s.config.Host, s.config.Port)

	db, err := surrealdb.FromEndpointURLString(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if _, err := db.SignIn(ctx, &surrealdb.Auth{
		Username: s.config.User,
		Password: s.config.Password,
	}); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: signin failed: %v", ErrConnection, err)
	}

	if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use failed: %v", ErrConnection, err)
	}

	s.db = db
	return nil
}

// Close closes the connection
func (s *SurrealDB) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close(context.Background())
}

// Ping asks the server for its version
func (s *SurrealDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrConnection
	}
	if _, err := s.db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Query runs one or more statements. A failed statement fails the whole call.
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	if s.db == nil {
		return nil, ErrConnection
	}

	ctx, span := tracer.Start(ctx, "surrealdb.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "surrealdb"),
			attribute.String("db.operation", operationName(query)),
		),
	)
	defer span.End()

	results, err := surrealdb.Query[interface{}](ctx, s.db, query, vars)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, classifyError(err)
	}
	if results == nil {
		return nil, nil
	}

	output := make([]interface{}, 0, len(*results))
	var failures []string
	for _, r := range *results {
		if r.Status != "OK" {
			msg := ""
			if r.Error != nil {
				msg = r.Error.Message
			}
			failures = append(failures, msg)
			continue
		}
		output = append(output, map[string]interface{}{
			"status": r.Status,
			"result": r.Result,
		})
	}
	if len(failures) > 0 {
		span.SetStatus(codes.Error, "statement failed")
		msg := originatingFailure(failures)
		if msg == "" {
			return nil, ErrQuery
		}
		return nil, classifyError(fmt.Errorf("%s", msg))
	}
	return output, nil
}

// originatingFailure picks the error that caused a statement set to fail.
// When a transaction is cancelled every other statement reports a generic
// "not executed due to a failed transaction" message; those are skipped so
// the THROW or index violation text comes through.
func originatingFailure(messages []string) string {
	for _, msg := range messages {
		if msg != "" && !isCancelledStatement(msg) {
			return msg
		}
	}
	for _, msg := range messages {
		if msg != "" {
			return msg
		}
	}
	return ""
}

func isCancelledStatement(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "failed transaction") ||
		strings.Contains(msg, "transaction was cancelled") ||
		strings.Contains(msg, "transaction was canceled")
}

// QueryOne returns the first record produced by the first statement
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return FirstRecord(results[0])
}

// Execute runs a query and drops the result
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}

// classifyError maps unique index violations to ErrDuplicate.
func classifyError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "already contains") || strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate") {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return fmt.Errorf("%w: %v", ErrQuery, err)
}

func operationName(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}
