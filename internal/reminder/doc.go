// Package reminder periodically looks for learners with review points due
// and requests a due digest for each of them.
package reminder
