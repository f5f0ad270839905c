package schedule

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
)

// Role says what a timer does when it fires.
type Role int

const (
	// RoleProducer timers increment the count.
	RoleProducer Role = iota
	// RoleConsumer timers decrement the count.
	RoleConsumer
	// RoleRefresh is the single interval-polling render timer.
	RoleRefresh
)

// String returns the role name used in logs and events.
func (r Role) String() string {
	switch r {
	case RoleProducer:
		return "producer"
	case RoleConsumer:
		return "consumer"
	case RoleRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// State is a timer's lifecycle state.
type State int32

const (
	StateRunning State = iota
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	if s == StateStopped {
		return "stopped"
	}
	return "running"
}

// JitterFunc returns an extra delay in [0, bound].
type JitterFunc func(bound time.Duration) time.Duration

// UniformJitter draws the extra delay uniformly from [0, bound].
func UniformJitter(bound time.Duration) time.Duration {
	if bound <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(bound) + 1))
}

// Timer is a repeating task with its own period and jitter bound.
//
// Deadlines are anchored to the start time: firing n is due at
// start + n*period no matter how late earlier firings ran. Each firing may
// run up to the jitter bound after its deadline, never before it. Deadlines
// that passed while a firing was stalled are dropped, so a stall produces
// one late firing and the timer resumes on its original grid.
type Timer struct {
	id     int
	role   Role
	period time.Duration
	jitter time.Duration

	clock    Clock
	jitterFn JitterFunc
	fire     func(*Timer)

	mu      sync.Mutex
	state   State
	due     time.Time // deadline of the next firing, before jitter
	pending Stopper

	fired atomic.Uint64
}

// ID returns the registry-assigned identifier (1-based, in registration order).
func (t *Timer) ID() int { return t.id }

// Role returns the timer's role.
func (t *Timer) Role() Role { return t.role }

// Period returns the time between deadlines.
func (t *Timer) Period() time.Duration { return t.period }

// Jitter returns the maximum lateness of a firing.
func (t *Timer) Jitter() time.Duration { return t.jitter }

// Fired returns how many times the timer has fired.
func (t *Timer) Fired() uint64 { return t.fired.Load() }

// State returns the timer's lifecycle state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// NextDue returns the deadline of the next firing, before jitter.
func (t *Timer) NextDue() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.due
}

// start arms the first firing, due after delay.
func (t *Timer) start(delay time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.due = t.clock.Now().Add(delay)
	t.arm()
}

// arm schedules the callback for t.due plus jitter. Caller holds mu.
func (t *Timer) arm() {
	wait := t.due.Sub(t.clock.Now())
	if wait < 0 {
		wait = 0
	}
	wait += t.jitterFn(t.jitter)
	t.pending = t.clock.AfterFunc(wait, t.tick)
}

func (t *Timer) tick() {
	t.mu.Lock()
	if t.state != StateRunning {
		t.mu.Unlock()
		return
	}
	now := t.clock.Now()
	t.due = t.due.Add(t.period)
	if !t.due.After(now) {
		missed := now.Sub(t.due)/t.period + 1
		t.due = t.due.Add(missed * t.period)
	}
	t.arm()
	t.mu.Unlock()

	t.fired.Add(1)
	t.fire(t)
}

// stop cancels future firings. A firing already in progress completes.
func (t *Timer) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateStopped {
		return
	}
	t.state = StateStopped
	if t.pending != nil {
		t.pending.Stop()
	}
}
