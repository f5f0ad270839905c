// Package testutil provides testing utilities for prodcon tests.
package testutil

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/prodcon/internal/schedule"
)

// FakeClock is a schedule.Clock whose time only moves when Advance is
// called. Callbacks run synchronously inside Advance, in deadline order,
// and may schedule further callbacks that become due within the same call.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	waiters []*fakeTimer
}

type fakeTimer struct {
	clock *FakeClock
	when  time.Time
	seq   uint64
	f     func()
	done  bool
}

// NewFakeClock returns a FakeClock starting at a fixed instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the fake current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registers f to run once the fake time reaches now+d.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) schedule.Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	ft := &fakeTimer{clock: c, when: c.now.Add(d), seq: c.seq, f: f}
	c.waiters = append(c.waiters, ft)
	return ft
}

// Stop removes the callback if it has not run yet.
func (ft *fakeTimer) Stop() bool {
	ft.clock.mu.Lock()
	defer ft.clock.mu.Unlock()
	if ft.done {
		return false
	}
	ft.done = true
	for i, w := range ft.clock.waiters {
		if w == ft {
			ft.clock.waiters = append(ft.clock.waiters[:i], ft.clock.waiters[i+1:]...)
			break
		}
	}
	return true
}

// Advance moves time forward by d, running every callback that becomes due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.popDue(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.when
		c.mu.Unlock()

		next.f()
	}
}

// AdvanceInSteps calls Advance(step) n times.
func (c *FakeClock) AdvanceInSteps(step time.Duration, n int) {
	for range n {
		c.Advance(step)
	}
}

// popDue removes and returns the earliest waiter due by target. Caller holds mu.
func (c *FakeClock) popDue(target time.Time) *fakeTimer {
	if len(c.waiters) == 0 {
		return nil
	}
	sort.Slice(c.waiters, func(i, j int) bool {
		if c.waiters[i].when.Equal(c.waiters[j].when) {
			return c.waiters[i].seq < c.waiters[j].seq
		}
		return c.waiters[i].when.Before(c.waiters[j].when)
	})
	first := c.waiters[0]
	if first.when.After(target) {
		return nil
	}
	c.waiters = c.waiters[1:]
	first.done = true
	return first
}

// Pending returns the number of callbacks waiting to run.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// NoJitter is a schedule.JitterFunc that never delays.
func NoJitter(time.Duration) time.Duration { return 0 }

// MaxJitter is a schedule.JitterFunc that always delays by the full bound.
func MaxJitter(bound time.Duration) time.Duration { return bound }

// Eventually polls cond until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	if !cond() {
		t.Fatalf("condition not met within %s: %s", timeout, msg)
	}
}
