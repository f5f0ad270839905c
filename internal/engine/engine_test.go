package engine_test

import (
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/prodcon/internal/engine"
	"github.com/Iron-Ham/prodcon/internal/errors"
	"github.com/Iron-Ham/prodcon/internal/event"
	"github.com/Iron-Ham/prodcon/internal/refresh"
	"github.com/Iron-Ham/prodcon/internal/testutil"
)

type countingNotifier struct {
	renders    atomic.Int64
	suppressed atomic.Bool
}

func (n *countingNotifier) Render()             { n.renders.Add(1) }
func (n *countingNotifier) SuppressAnimations() { n.suppressed.Store(true) }

func newFakeEngine(t *testing.T, modify func(*engine.Options)) (*engine.Engine, *countingNotifier, *testutil.FakeClock) {
	t.Helper()
	clock := testutil.NewFakeClock()
	n := &countingNotifier{}
	opts := engine.DefaultOptions()
	opts.Clock = clock
	opts.Jitter = testutil.NoJitter
	if modify != nil {
		modify(&opts)
	}
	e := engine.New(n, opts)
	t.Cleanup(e.Close)
	return e, n, clock
}

func advance(t *testing.T, e *engine.Engine, clock *testutil.FakeClock, d time.Duration) {
	t.Helper()
	clock.Advance(d)
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
}

func TestEngine_SingleProducer(t *testing.T) {
	e, n, clock := newFakeEngine(t, nil)

	if err := e.AddProducer(); err != nil {
		t.Fatalf("AddProducer() error = %v", err)
	}

	advance(t, e, clock, 9*time.Second)

	if got := e.Count(); got != 3 {
		t.Errorf("Count() after 9s = %d, want 3", got)
	}
	if got := n.renders.Load(); got != 3 {
		t.Errorf("renders = %d, want one per mutation (3)", got)
	}
	if e.Mode() != refresh.EventDriven {
		t.Errorf("Mode() = %v, want EventDriven", e.Mode())
	}
}

func TestEngine_DefaultPeriodsProducerAndConsumer(t *testing.T) {
	e, _, clock := newFakeEngine(t, nil)

	if err := e.AddProducer(); err != nil {
		t.Fatalf("AddProducer() error = %v", err)
	}
	if err := e.AddConsumer(); err != nil {
		t.Fatalf("AddConsumer() error = %v", err)
	}

	// Producer fires every 3s, consumer every 4s; both fire at 12s and 24s.
	want := []int{
		0, 0, 1, 0, 0, 1, 1, 0, 1, 1, 1, 1, // 1s..12s
		1, 1, 2, 1, 1, 2, 2, 1, 2, 2, 2, 2, // 13s..24s
	}
	producerFirings, consumerFirings := 0, 0
	for i, w := range want {
		sec := i + 1
		advance(t, e, clock, time.Second)
		if sec%3 == 0 {
			producerFirings++
		}
		if sec%4 == 0 {
			consumerFirings++
		}
		clamped := max(producerFirings-consumerFirings, 0)
		if got := e.Count(); got != w || got != clamped {
			t.Fatalf("Count() at %ds = %d, want %d", sec, got, w)
		}
	}

	snap := e.Snapshot()
	if snap.Firings != 14 {
		t.Errorf("Firings = %d, want 8 producer + 6 consumer", snap.Firings)
	}
	if snap.Counter.Increments != 8 || snap.Counter.Decrements != 6 || snap.Counter.FloorHits != 0 {
		t.Errorf("Counter = %+v, want 8 increments, 6 decrements, no floor hits", snap.Counter)
	}
	if snap.MaxCount != math.MaxInt {
		t.Errorf("MaxCount = %d, want math.MaxInt", snap.MaxCount)
	}
}

func TestEngine_SingleProducerWithMaxJitter(t *testing.T) {
	e, _, clock := newFakeEngine(t, func(o *engine.Options) {
		o.Jitter = testutil.MaxJitter
	})

	if err := e.AddProducer(); err != nil {
		t.Fatalf("AddProducer() error = %v", err)
	}

	advance(t, e, clock, 9*time.Second)
	if got := e.Count(); got != 2 {
		t.Errorf("Count() at 9s with late firings = %d, want 2", got)
	}

	// The third firing is late by at most the jitter bound.
	advance(t, e, clock, 300*time.Millisecond)
	if got := e.Count(); got != 3 {
		t.Errorf("Count() at 9.3s = %d, want 3", got)
	}
}

func TestEngine_ConsumerAloneStaysAtZero(t *testing.T) {
	e, n, clock := newFakeEngine(t, nil)

	if err := e.AddConsumer(); err != nil {
		t.Fatalf("AddConsumer() error = %v", err)
	}
	advance(t, e, clock, 20*time.Second)

	if got := e.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
	if got := n.renders.Load(); got != 0 {
		t.Errorf("renders = %d, want 0 for clamped firings", got)
	}
	if got := e.Snapshot().Counter.FloorHits; got != 5 {
		t.Errorf("FloorHits = %d, want 5", got)
	}
}

func TestEngine_ProducerAndConsumerNeverNegative(t *testing.T) {
	e, _, clock := newFakeEngine(t, func(o *engine.Options) {
		o.ProducerPeriod = 3 * time.Second
		o.ConsumerPeriod = time.Second
	})

	if err := e.AddProducer(); err != nil {
		t.Fatalf("AddProducer() error = %v", err)
	}
	if err := e.AddConsumer(); err != nil {
		t.Fatalf("AddConsumer() error = %v", err)
	}

	for range 40 {
		advance(t, e, clock, 500*time.Millisecond)
		if c := e.Count(); c < 0 {
			t.Fatalf("Count() = %d, must never be negative", c)
		}
	}

	snap := e.Snapshot()
	applied := int(snap.Counter.Increments) - int(snap.Counter.Decrements)
	if snap.Count != applied {
		t.Errorf("Count = %d, want increments-decrements = %d", snap.Count, applied)
	}
	if snap.Counter.FloorHits == 0 {
		t.Error("a faster consumer should hit the floor at least once")
	}
	if snap.Counter.Increments != 6 {
		t.Errorf("Increments = %d, want 6 producer firings in 20s", snap.Counter.Increments)
	}
}

func TestEngine_SwitchesAfterThreshold(t *testing.T) {
	e, n, clock := newFakeEngine(t, nil)

	for i := 1; i <= 100; i++ {
		if err := e.AddProducer(); err != nil {
			t.Fatalf("AddProducer() %d error = %v", i, err)
		}
	}
	if e.Mode() != refresh.EventDriven {
		t.Fatalf("Mode() with 100 timers = %v, want EventDriven", e.Mode())
	}

	if err := e.AddProducer(); err != nil {
		t.Fatalf("AddProducer() 101 error = %v", err)
	}
	if e.Mode() != refresh.IntervalPolled {
		t.Fatalf("Mode() with 101 timers = %v, want IntervalPolled", e.Mode())
	}
	if !n.suppressed.Load() {
		t.Error("animations should be suppressed at the switch")
	}
	if got := e.TimerCount(); got != 102 {
		t.Errorf("TimerCount() = %d, want 101 producers plus one refresh timer", got)
	}

	advance(t, e, clock, 3*time.Second)

	snap := e.Snapshot()
	if snap.Count != 101 {
		t.Errorf("Count = %d, want 101", snap.Count)
	}
	if snap.Renders.EventRenders != 0 {
		t.Errorf("EventRenders = %d, want 0 after the switch", snap.Renders.EventRenders)
	}
	// Ticks at 0, 100ms, ..., 3s.
	if snap.Renders.IntervalRenders != 31 {
		t.Errorf("IntervalRenders = %d, want 31", snap.Renders.IntervalRenders)
	}
	if got := n.renders.Load(); got != 31 {
		t.Errorf("notifier renders = %d, want only interval renders (31)", got)
	}
	if snap.Refresh != 1 {
		t.Errorf("refresh timers = %d, want 1", snap.Refresh)
	}
	if snap.Renders.SwitchedTimers != 101 {
		t.Errorf("SwitchedTimers = %d, want 101", snap.Renders.SwitchedTimers)
	}

	if err := e.AddConsumer(); err != nil {
		t.Fatalf("AddConsumer() after switch error = %v", err)
	}
	if got := e.Snapshot().Refresh; got != 1 {
		t.Errorf("refresh timers after another registration = %d, want 1", got)
	}
}

func TestEngine_ZeroThresholdSwitchesOnFirstTimer(t *testing.T) {
	e, _, _ := newFakeEngine(t, func(o *engine.Options) {
		o.SwitchThreshold = 0
	})

	if err := e.AddConsumer(); err != nil {
		t.Fatalf("AddConsumer() error = %v", err)
	}
	if e.Mode() != refresh.IntervalPolled {
		t.Errorf("Mode() = %v, want IntervalPolled", e.Mode())
	}
}

func TestEngine_TimerCap(t *testing.T) {
	e, _, _ := newFakeEngine(t, func(o *engine.Options) {
		o.MaxTimers = 2
		o.SwitchThreshold = 1
	})

	if err := e.AddProducer(); err != nil {
		t.Fatalf("AddProducer() error = %v", err)
	}
	if err := e.AddConsumer(); err != nil {
		t.Fatalf("AddConsumer() error = %v", err)
	}
	err := e.AddProducer()
	if !errors.Is(err, errors.ErrTimerLimit) {
		t.Fatalf("AddProducer() over the cap error = %v, want ErrTimerLimit", err)
	}
	var te *errors.TimerError
	if !errors.As(err, &te) || te.Role != "producer" {
		t.Errorf("error should carry the producer role, got %v", err)
	}

	snap := e.Snapshot()
	if snap.Mode != refresh.IntervalPolled || snap.Refresh != 1 {
		t.Errorf("capped engine should still switch: mode=%v refresh=%d", snap.Mode, snap.Refresh)
	}
}

func TestEngine_CeilingIsANoOp(t *testing.T) {
	e, n, clock := newFakeEngine(t, func(o *engine.Options) {
		o.MaxCount = 2
		o.ProducerPeriod = time.Second
	})

	if err := e.AddProducer(); err != nil {
		t.Fatalf("AddProducer() error = %v", err)
	}
	advance(t, e, clock, 5*time.Second)

	if got := e.Count(); got != 2 {
		t.Errorf("Count() = %d, want ceiling 2", got)
	}
	if got := n.renders.Load(); got != 2 {
		t.Errorf("renders = %d, want 2", got)
	}
	if got := e.Snapshot().Counter.CeilingHits; got != 3 {
		t.Errorf("CeilingHits = %d, want 3", got)
	}
	if got := e.Snapshot().MaxCount; got != 2 {
		t.Errorf("MaxCount = %d, want 2", got)
	}
}

func TestEngine_PublishesEvents(t *testing.T) {
	bus := event.NewBus(nil)
	var registered, changed, clamped, switched atomic.Int32
	bus.Subscribe(event.TypeTimerRegistered, func(event.Event) { registered.Add(1) })
	bus.Subscribe(event.TypeCounterChanged, func(event.Event) { changed.Add(1) })
	bus.Subscribe(event.TypeCounterClamped, func(event.Event) { clamped.Add(1) })
	bus.Subscribe(event.TypeModeSwitched, func(event.Event) { switched.Add(1) })

	e, _, clock := newFakeEngine(t, func(o *engine.Options) {
		o.Bus = bus
		o.SwitchThreshold = 2
		o.ProducerPeriod = time.Second
		o.ConsumerPeriod = time.Second
	})

	if err := e.AddConsumer(); err != nil {
		t.Fatal(err)
	}
	advance(t, e, clock, time.Second)
	if err := e.AddProducer(); err != nil {
		t.Fatal(err)
	}
	if err := e.AddProducer(); err != nil {
		t.Fatal(err)
	}

	if registered.Load() != 4 {
		t.Errorf("timer.registered = %d, want 4 (three timers and the refresh timer)", registered.Load())
	}
	if clamped.Load() != 1 {
		t.Errorf("counter.clamped = %d, want 1", clamped.Load())
	}
	if switched.Load() != 1 {
		t.Errorf("refresh.mode_switched = %d, want 1", switched.Load())
	}

	advance(t, e, clock, time.Second)
	if changed.Load() < 1 {
		t.Error("counter.changed should be published for applied mutations")
	}
	if e.Bus() != bus {
		t.Error("Bus() should return the configured bus")
	}
}

func TestEngine_CloseStopsEverything(t *testing.T) {
	e, _, clock := newFakeEngine(t, nil)

	if err := e.AddProducer(); err != nil {
		t.Fatal(err)
	}
	e.Close()
	e.Close()

	clock.Advance(10 * time.Second)
	if got := e.Count(); got != 0 {
		t.Errorf("Count() after Close = %d, want 0", got)
	}
	if err := e.AddProducer(); !errors.Is(err, errors.ErrClosed) {
		t.Errorf("AddProducer() after Close error = %v, want ErrClosed", err)
	}
	if err := e.Flush(); !errors.Is(err, errors.ErrClosed) {
		t.Errorf("Flush() after Close error = %v, want ErrClosed", err)
	}
}

func TestEngine_ConcurrentRealClock(t *testing.T) {
	n := &countingNotifier{}
	e := engine.New(n, engine.Options{
		ProducerPeriod:  2 * time.Millisecond,
		ProducerJitter:  time.Millisecond,
		ConsumerPeriod:  time.Millisecond,
		ConsumerJitter:  time.Millisecond,
		SwitchThreshold: 30,
		RefreshInterval: 5 * time.Millisecond,
	})
	defer e.Close()

	var wg conc.WaitGroup
	for i := range 40 {
		wg.Go(func() {
			var err error
			if i%2 == 0 {
				err = e.AddProducer()
			} else {
				err = e.AddConsumer()
			}
			if err != nil {
				t.Errorf("registration %d failed: %v", i, err)
			}
		})
		wg.Go(func() {
			if c := e.Count(); c < 0 {
				t.Errorf("Count() = %d", c)
			}
		})
	}
	wg.Wait()

	testutil.Eventually(t, time.Second, func() bool {
		return e.Snapshot().Renders.IntervalRenders > 0
	}, "interval renders should start after the switch")

	snap := e.Snapshot()
	if snap.Mode != refresh.IntervalPolled {
		t.Errorf("Mode = %v, want IntervalPolled", snap.Mode)
	}
	if snap.Refresh != 1 {
		t.Errorf("refresh timers = %d, want exactly 1", snap.Refresh)
	}
	if snap.Timers != 41 {
		t.Errorf("Timers = %d, want 41", snap.Timers)
	}

	e.Close()
	snap = e.Snapshot()
	applied := int(snap.Counter.Increments) - int(snap.Counter.Decrements)
	if snap.Count != applied || snap.Count < 0 {
		t.Errorf("Count = %d, want %d and non-negative", snap.Count, applied)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts := engine.DefaultOptions()
	if opts.ProducerPeriod != 3*time.Second || opts.ConsumerPeriod != 4*time.Second {
		t.Errorf("periods = %v/%v, want 3s/4s", opts.ProducerPeriod, opts.ConsumerPeriod)
	}
	if opts.ProducerJitter != 300*time.Millisecond || opts.ConsumerJitter != 400*time.Millisecond {
		t.Errorf("jitter = %v/%v, want 300ms/400ms", opts.ProducerJitter, opts.ConsumerJitter)
	}
	if opts.SwitchThreshold != 100 {
		t.Errorf("SwitchThreshold = %d, want 100", opts.SwitchThreshold)
	}
	if opts.RefreshInterval != 100*time.Millisecond || opts.RefreshJitter != 10*time.Millisecond {
		t.Errorf("refresh = %v/%v, want 100ms/10ms", opts.RefreshInterval, opts.RefreshJitter)
	}
}
