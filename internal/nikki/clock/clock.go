// Package clock abstracts time.Now, time.After and time.AfterFunc so that
// session expiry and scheduled check-ins can be driven by a fake clock in
// tests instead of wall-clock sleeps.
package clock

import "time"

// Clock is the subset of the time package nikki depends on.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable deferred callback.
type Timer interface {
	// Stop prevents the callback from running. It reports false when the
	// callback already ran or the timer was already stopped.
	Stop() bool
}

// Real delegates to the standard library.
type Real struct{}

func (Real) Now() time.Time                         { return time.Now() }
func (Real) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
