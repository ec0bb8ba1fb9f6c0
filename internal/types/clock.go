package types

import "time"

// Clock abstracts time.Now so services with time-dependent behavior (caches,
// signature timestamps) can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock backed by time.Now.
type RealClock struct{}

// Now returns the current UTC time.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}
