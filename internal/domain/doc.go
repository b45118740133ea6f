// Package domain contains the core business entities, value objects, and
// errors of the review scheduler: review points, review outcomes and the
// per-user review settings. It is independent of any storage or delivery
// mechanism.
package domain
