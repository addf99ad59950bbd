package engine

import "time"

// Clock supplies the reference instant when a caller does not pass one
// explicitly. Parsing itself never reads the wall clock.
type Clock interface {
	Now() time.Time
}

// RealClock reports the current local time.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always reports the same instant. Hosts use it to honour an
// overridden "now" (CLI --now, HTTP now=) and tests use it for determinism.
type FixedClock struct {
	At time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time {
	return c.At
}
