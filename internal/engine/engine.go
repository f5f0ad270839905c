// Package engine wires the counter, the serial queue, the timer registry and
// the refresh coordinator into the core that the presentation layer talks to.
//
// The presentation layer only ever calls AddProducer, AddConsumer and Count.
// Everything else happens on timer goroutines, the serial queue worker and
// whatever render context the Notifier hands frames to.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/Iron-Ham/prodcon/internal/config"
	"github.com/Iron-Ham/prodcon/internal/counter"
	"github.com/Iron-Ham/prodcon/internal/errors"
	"github.com/Iron-Ham/prodcon/internal/event"
	"github.com/Iron-Ham/prodcon/internal/logging"
	"github.com/Iron-Ham/prodcon/internal/refresh"
	"github.com/Iron-Ham/prodcon/internal/schedule"
	"github.com/Iron-Ham/prodcon/internal/serial"
)

// Options configures an Engine. The zero value of each field means "use the
// default".
type Options struct {
	ProducerPeriod time.Duration
	ProducerJitter time.Duration
	ConsumerPeriod time.Duration
	ConsumerJitter time.Duration

	// SwitchThreshold is the timer count above which rendering moves to
	// interval polling. A negative value is treated as 0.
	SwitchThreshold int
	RefreshInterval time.Duration
	RefreshJitter   time.Duration

	// MaxTimers caps producer and consumer registrations. 0 means unbounded.
	MaxTimers int
	// MaxCount lowers the counter ceiling. 0 means math.MaxInt.
	MaxCount int

	Clock  schedule.Clock
	Jitter schedule.JitterFunc
	Logger *logging.Logger
	Bus    *event.Bus
}

// DefaultOptions returns the options matching config.Default().
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig derives engine options from a loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ProducerPeriod:  cfg.Timers.ProducerPeriod,
		ProducerJitter:  cfg.Timers.ProducerJitter(),
		ConsumerPeriod:  cfg.Timers.ConsumerPeriod,
		ConsumerJitter:  cfg.Timers.ConsumerJitter(),
		SwitchThreshold: cfg.Refresh.SwitchThreshold,
		RefreshInterval: cfg.Refresh.Interval,
		RefreshJitter:   cfg.Refresh.Jitter,
		MaxTimers:       cfg.Timers.Max,
	}
}

func (o *Options) applyDefaults() {
	def := config.Default()
	if o.ProducerPeriod <= 0 {
		o.ProducerPeriod = def.Timers.ProducerPeriod
	}
	if o.ConsumerPeriod <= 0 {
		o.ConsumerPeriod = def.Timers.ConsumerPeriod
	}
	if o.ProducerJitter < 0 {
		o.ProducerJitter = 0
	}
	if o.ConsumerJitter < 0 {
		o.ConsumerJitter = 0
	}
	if o.SwitchThreshold < 0 {
		o.SwitchThreshold = 0
	}
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = refresh.DefaultInterval
	}
	if o.RefreshJitter < 0 {
		o.RefreshJitter = 0
	}
	if o.Clock == nil {
		o.Clock = schedule.RealClock
	}
	if o.Jitter == nil {
		o.Jitter = schedule.UniformJitter
	}
	if o.Logger == nil {
		o.Logger = logging.NopLogger()
	}
}

// Snapshot is a consistent-enough view of the engine for status displays.
// Count and the timer counts are read separately and may be a firing apart.
type Snapshot struct {
	Count     int
	Mode      refresh.Mode
	Producers int
	Consumers int
	Refresh   int
	Timers    int
	Threshold int
	MaxCount  int
	Firings   uint64 // timer firings so far, all roles
	Renders   refresh.Stats
	Counter   counter.Stats
}

// Engine is the core. It is safe for concurrent use.
type Engine struct {
	opts     Options
	logger   *logging.Logger
	bus      *event.Bus
	store    *counter.Store
	queue    *serial.Queue
	registry *schedule.Registry
	coord    *refresh.Coordinator

	logSub    string
	closeOnce sync.Once
}

// New builds an Engine that asks n to render. n must not block.
func New(n refresh.Notifier, opts Options) *Engine {
	opts.applyDefaults()

	e := &Engine{
		opts:   opts,
		logger: opts.Logger.WithComponent("engine"),
		bus:    opts.Bus,
	}
	if e.bus == nil {
		e.bus = event.NewBus(opts.Logger)
	}

	var storeOpts []counter.Option
	if opts.MaxCount > 0 {
		storeOpts = append(storeOpts, counter.WithMaximum(opts.MaxCount))
	}
	e.store = counter.New(storeOpts...)
	e.queue = serial.New(opts.Logger.WithComponent("serial"))

	// The threshold hook only runs after a registration, by which time
	// coord is set.
	e.registry = schedule.NewRegistry(e,
		schedule.WithClock(opts.Clock),
		schedule.WithJitter(opts.Jitter),
		schedule.WithThreshold(opts.SwitchThreshold, func(total int) {
			e.coord.SwitchToIntervalPolling(total)
		}),
		schedule.WithMaxTimers(opts.MaxTimers),
		schedule.WithLogger(opts.Logger),
		schedule.WithBus(e.bus),
	)
	e.coord = refresh.NewCoordinator(n, e.registry,
		refresh.WithInterval(opts.RefreshInterval, opts.RefreshJitter),
		refresh.WithClock(opts.Clock),
		refresh.WithLogger(opts.Logger),
		refresh.WithBus(e.bus),
	)

	if e.logger.Enabled(logging.LevelDebug) {
		e.logSub = e.bus.SubscribeAll(func(ev event.Event) {
			e.logger.Debug("event", "type", ev.EventType())
		})
	}

	e.logger.Info("engine started",
		"producer_period", opts.ProducerPeriod.String(),
		"consumer_period", opts.ConsumerPeriod.String(),
		"switch_threshold", opts.SwitchThreshold,
		"max_timers", opts.MaxTimers)
	return e
}

// AddProducer starts a producer timer. Each firing adds one to the count,
// unless it is at the ceiling.
func (e *Engine) AddProducer() error {
	_, err := e.registry.AddRecurring(schedule.RoleProducer, e.opts.ProducerPeriod, e.opts.ProducerJitter)
	if err != nil {
		return fmt.Errorf("add producer: %w", err)
	}
	return nil
}

// AddConsumer starts a consumer timer. Each firing removes one from the
// count, unless it is already zero.
func (e *Engine) AddConsumer() error {
	_, err := e.registry.AddRecurring(schedule.RoleConsumer, e.opts.ConsumerPeriod, e.opts.ConsumerJitter)
	if err != nil {
		return fmt.Errorf("add consumer: %w", err)
	}
	return nil
}

// Count returns the current count, which the presentation layer shows as
// that many rows. A negative count is a defect and panics with an
// *errors.InvariantError.
func (e *Engine) Count() int {
	n := e.store.Count()
	if n < 0 {
		panic(errors.NewInvariantError("count >= 0", n))
	}
	return n
}

// Mode returns the current refresh mode.
func (e *Engine) Mode() refresh.Mode {
	return e.coord.Mode()
}

// TimerCount returns the number of registered timers, the refresh timer
// included.
func (e *Engine) TimerCount() int {
	return e.registry.Len()
}

// Bus returns the bus the engine publishes on.
func (e *Engine) Bus() *event.Bus {
	return e.bus
}

// Snapshot gathers the current state.
func (e *Engine) Snapshot() Snapshot {
	byRole := e.registry.CountByRole()
	var firings uint64
	for _, tm := range e.registry.Timers() {
		firings += tm.Fired()
	}
	return Snapshot{
		Count:     e.Count(),
		Mode:      e.coord.Mode(),
		Producers: byRole[schedule.RoleProducer],
		Consumers: byRole[schedule.RoleConsumer],
		Refresh:   byRole[schedule.RoleRefresh],
		Timers:    byRole[schedule.RoleProducer] + byRole[schedule.RoleConsumer] + byRole[schedule.RoleRefresh],
		Threshold: e.registry.Threshold(),
		MaxCount:  e.store.Max(),
		Firings:   firings,
		Renders:   e.coord.Stats(),
		Counter:   e.store.Stats(),
	}
}

// Flush waits until every mutation posted so far has been applied.
func (e *Engine) Flush() error {
	return e.queue.Sync(func() {})
}

// Dispatch implements schedule.Dispatcher. Producer and consumer firings
// are posted to the serial queue; refresh firings go straight to the
// coordinator.
func (e *Engine) Dispatch(t *schedule.Timer) {
	switch t.Role() {
	case schedule.RoleProducer:
		e.post(t, e.store.Increment)
	case schedule.RoleConsumer:
		e.post(t, e.store.Decrement)
	case schedule.RoleRefresh:
		e.coord.Tick()
	}
}

func (e *Engine) post(t *schedule.Timer, mutate func() bool) {
	role := t.Role().String()
	err := e.queue.Post(func() {
		if mutate() {
			e.coord.Mutated()
			e.bus.Publish(event.NewCounterChangedEvent(role, e.store.Count()))
			return
		}
		e.bus.Publish(event.NewCounterClampedEvent(role, e.store.Count()))
	})
	if err != nil {
		e.logger.Debug("firing dropped", "timer", t.ID(), "role", role, "error", err.Error())
	}
}

// Close stops every timer, then drains the serial queue. Firings that race
// with Close are either applied or dropped. It is safe to call more than
// once.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.registry.Shutdown()
		e.queue.Close()
		if e.logSub != "" {
			e.bus.Unsubscribe(e.logSub)
		}
		e.logger.Info("engine stopped", "count", e.store.Count(), "timers", e.registry.Len())
	})
}
