// Package clock abstracts timer scheduling so playback code can run against
// the system clock in production and a manually stepped clock in tests.
package clock

import "time"

// Timer is a scheduled callback that can be cancelled before it fires.
type Timer interface {
	// Stop cancels the timer. It reports whether the call prevented the
	// callback from firing.
	Stop() bool
}

// Clock provides time readings and callback scheduling.
type Clock interface {
	// AfterFunc schedules f to run after d elapses.
	AfterFunc(d time.Duration, f func()) Timer
	// Now returns the current time.
	Now() time.Time
}

// System is the default Clock backed by the time package.
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (systemClock) Now() time.Time {
	return time.Now()
}
