// Package task runs background work on a bounded in-memory queue drained by
// a pool of workers. The reminder sweep feeds it one due-digest task per
// learner; tasks are cheap to recompute, so nothing is persisted.
package task
