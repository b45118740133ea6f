// Package store defines the persistence contracts of the review scheduler.
//
// The interfaces here keep the scheduling service independent of the
// database in use: internal/platform/postgres and internal/platform/sqlite
// provide the implementations. Errors returned by implementations wrap the
// sentinels declared in this package.
package store
