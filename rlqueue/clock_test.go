/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package rlqueue

import (
	"sync"
	"time"
)

// fakeClock is a manually driven Clock. Sleep and After advance the time immediately.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.Advance(d)
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.Advance(d)
	ch := make(chan time.Time, 1)
	ch <- c.Now()
	return ch
}

// frozenClock never moves forward, waiting on it returns immediately.
type frozenClock struct {
	now time.Time
}

func (c frozenClock) Now() time.Time { return c.now }

func (c frozenClock) Sleep(time.Duration) {}

func (c frozenClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}
