// Package testdb provides isolated SurrealDB databases for integration tests.
//
// Each TestDB gets its own namespace with the embedded migrations applied.
// Tests skip when no database is reachable; set TEST_DB_REQUIRED to turn
// that into a failure in CI.
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    defer tdb.Close()
//
//	    repo := repository.NewTicketRepository(tdb.DB)
//	}
//
// Connection settings come from TEST_DB_HOST, TEST_DB_PORT, TEST_DB_USER and
// TEST_DB_PASSWORD.
//
// For subtests that share schema but want clean tables:
//
//	shared := testdb.NewShared(t)
//	t.Run("a", func(t *testing.T) { tdb := shared.SetupSubtest(t); ... })
package testdb
