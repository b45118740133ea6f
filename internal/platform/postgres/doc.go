// Package postgres provides the PostgreSQL implementations of the
// internal/store interfaces, together with the embedded goose migrations
// that create their schema. Connections are opened through the pgx
// database/sql driver; row locks for concurrent outcome processing use
// SELECT ... FOR UPDATE.
package postgres
