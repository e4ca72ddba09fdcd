package testdb

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/migrations"
)

// TestDB is a connection scoped to a namespace of its own
type TestDB struct {
	DB        database.Database
	Namespace string
	Database  string
	t         *testing.T
}

var (
	loadOnce sync.Once
	schema   []string
	loadErr  error

	seq atomic.Int64
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func configFromEnv() database.Config {
	return database.Config{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "8000"),
		User:     envOr("TEST_DB_USER", "root"),
		Password: envOr("TEST_DB_PASSWORD", "root"),
		Database: "test",
	}
}

func loadSchema() ([]string, error) {
	loadOnce.Do(func() {
		schema, loadErr = migrations.All()
	})
	return schema, loadErr
}

// New connects to a fresh namespace and applies the schema. The test is
// skipped when SurrealDB is unreachable unless TEST_DB_REQUIRED is set.
func New(t *testing.T) *TestDB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := configFromEnv()
	cfg.Namespace = fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), seq.Add(1))

	db := database.NewSurrealDB(cfg)
	if err := db.Connect(ctx); err != nil {
		if os.Getenv("TEST_DB_REQUIRED") != "" {
			t.Fatalf("testdb: connect: %v", err)
		}
		t.Skipf("testdb: SurrealDB unavailable at %s:%s: %v", cfg.Host, cfg.Port, err)
	}

	tdb := &TestDB{DB: db, Namespace: cfg.Namespace, Database: cfg.Database, t: t}

	stmts, err := loadSchema()
	if err != nil {
		_ = db.Close()
		t.Fatalf("testdb: load migrations: %v", err)
	}
	if _, err := migrations.Run(ctx, db, stmts); err != nil {
		_ = db.Close()
		t.Fatalf("testdb: %v", err)
	}

	return tdb
}

// Close drops the namespace and disconnects. Safe to call twice.
func (tdb *TestDB) Close() {
	if tdb.DB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = tdb.DB.Execute(ctx, "REMOVE NAMESPACE "+tdb.Namespace, nil)
	_ = tdb.DB.Close()
	tdb.DB = nil
}

// Reset deletes every row while keeping the schema
func (tdb *TestDB) Reset(t *testing.T) {
	t.Helper()

	results, err := tdb.DB.Query(tdb.Ctx(), "INFO FOR DB", nil)
	if err != nil {
		t.Fatalf("testdb: info for db: %v", err)
	}
	for _, table := range tableNames(results) {
		if err := tdb.DB.Execute(tdb.Ctx(), "DELETE FROM "+table, nil); err != nil {
			t.Logf("testdb: clear %s: %v", table, err)
		}
	}
}

func tableNames(results []interface{}) []string {
	if len(results) == 0 {
		return nil
	}
	resp, _ := results[0].(map[string]interface{})
	info, _ := resp["result"].(map[string]interface{})
	tables, _ := info["tables"].(map[string]interface{})

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	return names
}

// Ctx returns a context bounded by the test's lifetime
func (tdb *TestDB) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	tdb.t.Cleanup(cancel)
	return ctx
}

// MustExec executes a statement and fails the test on error
func (tdb *TestDB) MustExec(query string, vars map[string]interface{}) {
	tdb.t.Helper()
	if err := tdb.DB.Execute(tdb.Ctx(), query, vars); err != nil {
		tdb.t.Fatalf("testdb: exec failed: %v\nQuery: %s", err, query)
	}
}

// MustQuery runs a query and fails the test on error
func (tdb *TestDB) MustQuery(query string, vars map[string]interface{}) []interface{} {
	tdb.t.Helper()
	results, err := tdb.DB.Query(tdb.Ctx(), query, vars)
	if err != nil {
		tdb.t.Fatalf("testdb: query failed: %v\nQuery: %s", err, query)
	}
	return results
}

// Shared is one TestDB reused by several subtests
type Shared struct {
	*TestDB
}

// NewShared creates a database whose schema is applied once for all subtests
func NewShared(t *testing.T) *Shared {
	return &Shared{TestDB: New(t)}
}

// SetupSubtest empties every table and rebinds the helpers to t
func (s *Shared) SetupSubtest(t *testing.T) *TestDB {
	t.Helper()
	s.TestDB.t = t
	s.TestDB.Reset(t)
	return s.TestDB
}
