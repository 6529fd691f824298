/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package rlqueue

import "time"

// Clock is a source of time used by Queue.
// Implementations must be monotonic, i.e. not affected by wall-clock adjustments.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
	After(d time.Duration) <-chan time.Time
}

// realClock uses the standard time package. Values returned by time.Now carry a monotonic reading,
// so durations computed with Sub are immune to wall-clock changes.
type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
