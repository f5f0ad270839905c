// Package refresh decides when the presentation layer is told to redraw.
//
// The coordinator starts in EventDriven mode and notifies after every
// mutation. When the timer count outgrows the threshold it switches, once
// and for good, to IntervalPolled: one extra timer then drives rendering at
// a fixed short interval and per-mutation notifications stop.
package refresh

import (
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/prodcon/internal/event"
	"github.com/Iron-Ham/prodcon/internal/logging"
	"github.com/Iron-Ham/prodcon/internal/schedule"
)

// Default interval-poll settings.
const (
	DefaultInterval = 100 * time.Millisecond
	DefaultJitter   = 10 * time.Millisecond
)

// Notifier receives render requests. Render must not block; the receiver
// re-reads the count itself.
type Notifier interface {
	Render()
}

// AnimationSuppressor is implemented by notifiers that animate changes and
// can turn that off when rendering moves to interval polling.
type AnimationSuppressor interface {
	SuppressAnimations()
}

// Scheduler registers the interval timer. *schedule.Registry implements it.
type Scheduler interface {
	AddRecurring(role schedule.Role, period, jitter time.Duration, opts ...schedule.TimerOption) (*schedule.Timer, error)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithInterval sets the interval-poll period and jitter.
func WithInterval(period, jitter time.Duration) Option {
	return func(c *Coordinator) {
		c.interval = period
		c.jitter = jitter
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithBus publishes the mode switch on bus.
func WithBus(bus *event.Bus) Option {
	return func(c *Coordinator) { c.bus = bus }
}

// WithClock sets the clock used to stamp the switch time.
func WithClock(clock schedule.Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

// Stats describes the renders the coordinator has requested.
type Stats struct {
	Mode            Mode
	EventRenders    uint64
	IntervalRenders uint64
	SwitchedAt      time.Time // zero while EventDriven
	SwitchedTimers  int       // timer count that caused the switch
}

// Coordinator owns the refresh mode and is the only component that
// notifies the presentation layer. It is safe for concurrent use.
type Coordinator struct {
	notifier  Notifier
	scheduler Scheduler
	interval  time.Duration
	jitter    time.Duration
	logger    *logging.Logger
	bus       *event.Bus
	clock     schedule.Clock

	mode            atomic.Int32
	eventRenders    atomic.Uint64
	intervalRenders atomic.Uint64
	switchedAt      atomic.Pointer[time.Time]
	switchedTimers  atomic.Int64
	intervalTimer   atomic.Pointer[schedule.Timer]
}

// NewCoordinator creates a Coordinator in EventDriven mode. scheduler is
// used once, to start the interval timer at the switch.
func NewCoordinator(n Notifier, scheduler Scheduler, opts ...Option) *Coordinator {
	c := &Coordinator{
		notifier:  n,
		scheduler: scheduler,
		interval:  DefaultInterval,
		jitter:    DefaultJitter,
		clock:     schedule.RealClock,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NopLogger()
	}
	c.logger = c.logger.WithComponent("refresh")
	return c
}

// Mode returns the current mode.
func (c *Coordinator) Mode() Mode {
	return Mode(c.mode.Load())
}

// Mutated reports a successful count change. In EventDriven mode it asks
// for a render; in IntervalPolled mode it does nothing.
func (c *Coordinator) Mutated() {
	if c.Mode() != EventDriven {
		return
	}
	c.eventRenders.Add(1)
	c.notifier.Render()
}

// Tick is the interval timer's firing. It asks for a render whether or not
// the count changed.
func (c *Coordinator) Tick() {
	c.intervalRenders.Add(1)
	c.notifier.Render()
}

// SwitchToIntervalPolling moves to IntervalPolled mode. Only the first call
// does anything: it suppresses animations, starts the interval timer and
// announces the switch. It returns whether this call performed the switch.
// timers is the count that triggered it, for reporting.
func (c *Coordinator) SwitchToIntervalPolling(timers int) bool {
	if !c.mode.CompareAndSwap(int32(EventDriven), int32(IntervalPolled)) {
		return false
	}

	now := c.clock.Now()
	c.switchedAt.Store(&now)
	c.switchedTimers.Store(int64(timers))

	if s, ok := c.notifier.(AnimationSuppressor); ok {
		s.SuppressAnimations()
	}

	t, err := c.scheduler.AddRecurring(schedule.RoleRefresh, c.interval, c.jitter, schedule.StartImmediately())
	if err != nil {
		// Without the interval timer nothing would render again.
		c.logger.Error("failed to start interval refresh timer", "error", err.Error())
	} else {
		c.intervalTimer.Store(t)
	}

	c.logger.Info("switched refresh mode",
		"from", EventDriven.String(),
		"to", IntervalPolled.String(),
		"timers", timers,
		"interval", c.interval.String())
	if c.bus != nil {
		c.bus.Publish(event.NewModeSwitchedEvent(EventDriven.String(), IntervalPolled.String(), timers))
	}
	return true
}

// IntervalTimer returns the interval timer, or nil while EventDriven.
func (c *Coordinator) IntervalTimer() *schedule.Timer {
	return c.intervalTimer.Load()
}

// Stats returns a snapshot of the render counters.
func (c *Coordinator) Stats() Stats {
	s := Stats{
		Mode:            c.Mode(),
		EventRenders:    c.eventRenders.Load(),
		IntervalRenders: c.intervalRenders.Load(),
		SwitchedTimers:  int(c.switchedTimers.Load()),
	}
	if at := c.switchedAt.Load(); at != nil {
		s.SwitchedAt = *at
	}
	return s
}
