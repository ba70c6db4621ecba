// Package system provides a real clock implementation.
package system

import "time"

// Clock implements dedupe.Clock using time.Now.
//
// The returned instants keep their monotonic reading, so comparisons made
// with Before/After/Sub are immune to wall-clock adjustments.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time, including the monotonic clock reading.
func (Clock) Now() time.Time {
	return time.Now()
}
