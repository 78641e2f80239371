// Package system provides clock implementations.
package system

import "time"

// Clock implements crawler.Clock using time.Now.
type Clock struct {
	loc *time.Location
}

// New creates a Clock reporting times in loc (UTC when nil).
func New(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc}
}

// Now returns the current time.
func (c Clock) Now() time.Time {
	if c.loc == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.loc)
}

// Fixed is a clock frozen at one instant.
type Fixed time.Time

// Now returns the frozen instant.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}
