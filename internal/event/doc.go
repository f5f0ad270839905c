// Package event provides a pub-sub event bus that lets the core report what
// it is doing without depending on who listens.
//
// The counter, the timer registry and the refresh coordinator publish;
// the engine's debug logger and the headless runner subscribe.
//
// # Event Types
//
// Event types follow the pattern "category.action":
//   - timer.registered, timer.rejected
//   - counter.changed, counter.clamped
//   - refresh.mode_switched
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Handlers are called synchronously on
// the publishing goroutine and are protected against panics.
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//	bus.Subscribe(event.TypeModeSwitched, func(e event.Event) {
//	    sw := e.(event.ModeSwitchedEvent)
//	    fmt.Printf("switched at %d timers\n", sw.Timers)
//	})
package event
