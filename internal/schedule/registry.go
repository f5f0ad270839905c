// Package schedule owns the growing set of repeating producer, consumer and
// refresh timers.
//
// Timers are never removed individually; they run until the registry is
// shut down with the process. Each registration is counted under the
// registry lock, and once the total passes the switch threshold the
// registry fires its threshold hook.
package schedule

import (
	"sync"
	"time"

	"github.com/Iron-Ham/prodcon/internal/errors"
	"github.com/Iron-Ham/prodcon/internal/event"
	"github.com/Iron-Ham/prodcon/internal/logging"
)

// Dispatcher receives every timer firing. Implementations must return
// quickly; they run on the timer's goroutine.
type Dispatcher interface {
	Dispatch(t *Timer)
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(t *Timer)

// Dispatch calls f(t).
func (f DispatchFunc) Dispatch(t *Timer) { f(t) }

// ThresholdFunc is called, outside the registry lock, after every
// registration that leaves more than the threshold number of timers.
// It must be idempotent.
type ThresholdFunc func(total int)

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces the real clock.
func WithClock(c Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithJitter replaces UniformJitter.
func WithJitter(fn JitterFunc) Option {
	return func(r *Registry) { r.jitterFn = fn }
}

// WithThreshold sets the timer count above which onExceeded is called.
func WithThreshold(threshold int, onExceeded ThresholdFunc) Option {
	return func(r *Registry) {
		r.threshold = threshold
		r.onExceeded = onExceeded
	}
}

// WithMaxTimers caps the number of producer and consumer timers. 0 means
// unbounded. The refresh timer is never refused, so interval polling can
// always start.
func WithMaxTimers(n int) Option {
	return func(r *Registry) { r.maxTimers = n }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithBus publishes timer events on bus.
func WithBus(bus *event.Bus) Option {
	return func(r *Registry) { r.bus = bus }
}

// TimerOption configures a single registration.
type TimerOption func(*timerSpec)

type timerSpec struct {
	firstDelay time.Duration
	immediate  bool
}

// StartImmediately makes the first firing due at registration time instead
// of one period later.
func StartImmediately() TimerOption {
	return func(s *timerSpec) { s.immediate = true }
}

// Registry creates, starts and owns repeating timers.
// It is safe for concurrent use.
type Registry struct {
	dispatcher Dispatcher
	clock      Clock
	jitterFn   JitterFunc
	threshold  int
	onExceeded ThresholdFunc
	maxTimers  int
	logger     *logging.Logger
	bus        *event.Bus

	mu     sync.Mutex
	timers []*Timer
	capped int // non-refresh timers, counted against maxTimers
	closed bool
}

// NewRegistry creates a Registry that sends every firing to d.
func NewRegistry(d Dispatcher, opts ...Option) *Registry {
	r := &Registry{
		dispatcher: d,
		clock:      RealClock,
		jitterFn:   UniformJitter,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NopLogger()
	}
	r.logger = r.logger.WithComponent("schedule")
	return r
}

// AddRecurring creates and starts a timer with the given role, period and
// jitter bound. The first firing is due one period from now unless
// StartImmediately is given.
//
// It fails with errors.ErrInvalidTimer for a non-positive period or a
// negative jitter, errors.ErrTimerLimit when the cap is reached and
// errors.ErrClosed after Shutdown. All failures are wrapped in
// *errors.TimerError.
func (r *Registry) AddRecurring(role Role, period, jitter time.Duration, opts ...TimerOption) (*Timer, error) {
	if period <= 0 || jitter < 0 {
		return nil, r.reject(role, period, errors.ErrInvalidTimer)
	}

	spec := timerSpec{firstDelay: period}
	for _, opt := range opts {
		opt(&spec)
	}
	if spec.immediate {
		spec.firstDelay = 0
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, r.reject(role, period, errors.ErrClosed)
	}
	if r.maxTimers > 0 && role != RoleRefresh && r.capped >= r.maxTimers {
		r.mu.Unlock()
		return nil, r.reject(role, period, errors.ErrTimerLimit)
	}

	t := &Timer{
		id:       len(r.timers) + 1,
		role:     role,
		period:   period,
		jitter:   jitter,
		clock:    r.clock,
		jitterFn: r.jitterFn,
		fire:     r.dispatcher.Dispatch,
	}
	r.timers = append(r.timers, t)
	if role != RoleRefresh {
		r.capped++
	}
	total := len(r.timers)
	t.start(spec.firstDelay)
	r.mu.Unlock()

	r.logger.WithTimer(t.id, role.String()).Debug("timer registered",
		"period", period.String(),
		"jitter", jitter.String(),
		"total", total)
	if r.bus != nil {
		r.bus.Publish(event.NewTimerRegisteredEvent(t.id, role.String(), period, jitter, total))
	}

	if r.onExceeded != nil && total > r.threshold {
		r.onExceeded(total)
	}
	return t, nil
}

func (r *Registry) reject(role Role, period time.Duration, cause error) error {
	err := errors.NewTimerError(role.String(), period.String(), cause)
	if errors.SeverityOf(err) == errors.SeverityWarning {
		r.logger.Warn("timer rejected", "role", role.String(), "error", err.Error())
	} else {
		r.logger.Error("timer rejected", "role", role.String(), "error", err.Error())
	}
	if r.bus != nil {
		r.bus.Publish(event.NewTimerRejectedEvent(role.String(), cause.Error()))
	}
	return err
}

// Len returns the number of registered timers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// CountByRole returns the number of registered timers per role.
func (r *Registry) CountByRole() map[Role]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[Role]int, 3)
	for _, t := range r.timers {
		counts[t.role]++
	}
	return counts
}

// Timers returns a snapshot of the registered timers in registration order.
func (r *Registry) Timers() []*Timer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Timer, len(r.timers))
	copy(out, r.timers)
	return out
}

// Threshold returns the configured switch threshold.
func (r *Registry) Threshold() int {
	return r.threshold
}

// Shutdown stops every timer and refuses further registrations.
// A firing already in progress may still complete.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	timers := r.timers
	r.mu.Unlock()

	for _, t := range timers {
		t.stop()
	}
	r.logger.Info("timers stopped", "count", len(timers))
}
