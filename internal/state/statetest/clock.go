// Package statetest provides a manual clock for tests that schedule toasts.
package statetest

import (
	"sync"
	"time"

	"careeros/internal/state"
)

// Clock runs scheduled functions only when Advance moves time past their deadline
type Clock struct {
	mu      sync.Mutex
	now     time.Duration
	pending []*timer
}

type timer struct {
	clock    *Clock
	deadline time.Duration
	fn       func()
	stopped  bool
	fired    bool
}

// NewClock returns a clock at time zero
func NewClock() *Clock {
	return &Clock{}
}

func (c *Clock) AfterFunc(d time.Duration, f func()) state.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &timer{clock: c, deadline: c.now + d, fn: f}
	c.pending = append(c.pending, t)
	return t
}

// Advance moves the clock forward and runs every timer that became due
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*timer
	for _, t := range c.pending {
		if !t.stopped && !t.fired && t.deadline <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// Scheduled counts timers that have neither fired nor been stopped
func (c *Clock) Scheduled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.pending {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *timer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
