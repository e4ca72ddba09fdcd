// Package database wraps the SurrealDB client used by every repository.
//
// Query returns the raw per-statement envelopes ({status, result});
// QueryOne unwraps the first record and reports ErrNotFound when a
// statement produced nothing. Unique index violations surface as
// ErrDuplicate so services can turn them into conflicts.
//
// Multi-statement writes that must apply together go through Batch, which
// wraps them in BEGIN/COMMIT TRANSACTION. There is no connection-level
// transaction: nothing is sent until Run.
package database
