// Package clock supplies the current instant to the scheduler.
//
// Scheduling code never calls time.Now directly; it receives a Clock through
// its constructor so tests can pin time to arbitrary instants.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// systemClock reads the wall clock in UTC.
type systemClock struct{}

// System returns a Clock backed by time.Now, normalised to UTC.
func System() Clock {
	return systemClock{}
}

// Now implements Clock.
func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a Clock that returns a settable instant. It is safe for
// concurrent use.
type Fixed struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFixed returns a Fixed clock set to t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t}
}

// Now implements Clock.
func (f *Fixed) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
