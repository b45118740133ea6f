// Package sqlite provides SQLite implementations of the internal/store
// interfaces for single-node deployments and fast store tests.
//
// Connections are opened with sqlx on top of the mattn/go-sqlite3 driver and
// limited to one, which serialises writers; rows are mapped with
// sqlx.StructScan. Timestamps are stored as fixed-width UTC text so that
// ordering and range queries can compare them as strings.
package sqlite
