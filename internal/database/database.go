package database

import (
	"context"
	"errors"
)

// Sentinel errors. Callers match them with errors.Is.
var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("duplicate record")
	ErrConnection = errors.New("database connection error")
	ErrQuery      = errors.New("query error")
)

// Database is the store every repository talks to.
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query returns one entry per statement, each shaped {status, result}.
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne returns the first record of the first statement, or ErrNotFound.
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a mutation and discards the result.
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config holds database connection settings
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}

// FirstRecord unwraps a {status, result} statement entry to its first record.
func FirstRecord(entry interface{}) (interface{}, error) {
	resp, ok := entry.(map[string]interface{})
	if !ok {
		return entry, nil
	}
	status, hasStatus := resp["status"].(string)
	if !hasStatus || status != "OK" {
		return entry, nil
	}
	switch result := resp["result"].(type) {
	case []interface{}:
		if len(result) == 0 {
			return nil, ErrNotFound
		}
		return result[0], nil
	case nil:
		return nil, ErrNotFound
	default:
		return result, nil
	}
}
