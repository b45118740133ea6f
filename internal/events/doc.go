// Package events carries review lifecycle notifications between components.
//
// The review service emits an Event after each committed schedule change; the
// reminder sweep emits digest requests that the task package turns into
// background work. Handlers register with an EventEmitter and never see each
// other.
package events
