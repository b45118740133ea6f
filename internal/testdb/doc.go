// Package testdb provides database helpers for tests.
//
// PostgreSQL tests use GetTestDBWithT, which skips unless DATABASE_URL (or
// SCHED_TEST_DB_URL) is set, and WithTx, which runs each test inside a
// transaction that is rolled back afterwards. SQLite tests use OpenSQLite,
// which returns a private, fully migrated in-memory database.
package testdb
