// Package workflowtest provides a controllable clock for timer-driven tests.
package workflowtest

import (
	"sync"
	"time"
)

// Timer is a pending After call on a FakeClock.
type Timer struct {
	D  time.Duration
	ch chan time.Time
}

// FakeClock only moves when a test fires one of its timers.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers chan Timer
}

// NewFakeClock starts at now.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now, timers: make(chan Timer, 64)}
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After registers a timer that fires only through Fire.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	c.timers <- Timer{D: d, ch: ch}
	return ch
}

// Next waits up to timeout for the next After call.
func (c *FakeClock) Next(timeout time.Duration) (Timer, bool) {
	select {
	case t := <-c.timers:
		return t, true
	case <-time.After(timeout):
		return Timer{}, false
	}
}

// Fire advances the clock by the timer's duration and delivers it.
func (c *FakeClock) Fire(t Timer) {
	c.mu.Lock()
	c.now = c.now.Add(t.D)
	now := c.now
	c.mu.Unlock()
	t.ch <- now
}

// Pending reports how many timers were requested but not yet taken by Next.
func (c *FakeClock) Pending() int {
	return len(c.timers)
}
