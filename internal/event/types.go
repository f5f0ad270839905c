package event

import (
	"time"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a "category.action" identifier.
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeTimerRegistered = "timer.registered"
	TypeTimerRejected   = "timer.rejected"
	TypeCounterChanged  = "counter.changed"
	TypeCounterClamped  = "counter.clamped"
	TypeModeSwitched    = "refresh.mode_switched"
)

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Timer Events
// -----------------------------------------------------------------------------

// TimerRegisteredEvent is emitted after a repeating timer is started.
type TimerRegisteredEvent struct {
	baseEvent
	TimerID int
	Role    string
	Period  time.Duration
	Jitter  time.Duration
	Total   int // timers registered so far, including this one
}

// NewTimerRegisteredEvent creates a TimerRegisteredEvent.
func NewTimerRegisteredEvent(id int, role string, period, jitter time.Duration, total int) TimerRegisteredEvent {
	return TimerRegisteredEvent{
		baseEvent: newBaseEvent(TypeTimerRegistered),
		TimerID:   id,
		Role:      role,
		Period:    period,
		Jitter:    jitter,
		Total:     total,
	}
}

// TimerRejectedEvent is emitted when a registration is refused.
type TimerRejectedEvent struct {
	baseEvent
	Role   string
	Reason string
}

// NewTimerRejectedEvent creates a TimerRejectedEvent.
func NewTimerRejectedEvent(role, reason string) TimerRejectedEvent {
	return TimerRejectedEvent{
		baseEvent: newBaseEvent(TypeTimerRejected),
		Role:      role,
		Reason:    reason,
	}
}

// -----------------------------------------------------------------------------
// Counter Events
// -----------------------------------------------------------------------------

// CounterChangedEvent is emitted after a successful increment or decrement.
type CounterChangedEvent struct {
	baseEvent
	Role  string // "producer" or "consumer"
	Count int    // value after the change
}

// NewCounterChangedEvent creates a CounterChangedEvent.
func NewCounterChangedEvent(role string, count int) CounterChangedEvent {
	return CounterChangedEvent{
		baseEvent: newBaseEvent(TypeCounterChanged),
		Role:      role,
		Count:     count,
	}
}

// CounterClampedEvent is emitted when a mutation was a no-op because the
// count sat at zero (consumer) or at its maximum (producer).
type CounterClampedEvent struct {
	baseEvent
	Role  string
	Count int
}

// NewCounterClampedEvent creates a CounterClampedEvent.
func NewCounterClampedEvent(role string, count int) CounterClampedEvent {
	return CounterClampedEvent{
		baseEvent: newBaseEvent(TypeCounterClamped),
		Role:      role,
		Count:     count,
	}
}

// -----------------------------------------------------------------------------
// Refresh Events
// -----------------------------------------------------------------------------

// ModeSwitchedEvent is emitted once, when rendering moves from per-mutation
// notifications to interval polling.
type ModeSwitchedEvent struct {
	baseEvent
	From   string
	To     string
	Timers int // timer count that triggered the switch
}

// NewModeSwitchedEvent creates a ModeSwitchedEvent.
func NewModeSwitchedEvent(from, to string, timers int) ModeSwitchedEvent {
	return ModeSwitchedEvent{
		baseEvent: newBaseEvent(TypeModeSwitched),
		From:      from,
		To:        to,
		Timers:    timers,
	}
}
