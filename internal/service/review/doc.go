// Package review orchestrates the scheduling engine over persistent storage.
//
// It resolves each user's ReviewSettings, reads and writes review points in a
// single transaction per operation, delegates every scheduling decision to
// package srs, and emits review events once a change has been committed.
package review
