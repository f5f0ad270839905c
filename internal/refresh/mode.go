package refresh

// Mode is the render-notification strategy.
type Mode int32

const (
	// EventDriven renders after every successful mutation.
	EventDriven Mode = iota
	// IntervalPolled renders on a fixed interval only.
	IntervalPolled
)

// String returns the mode name used in logs, events and the UI.
func (m Mode) String() string {
	switch m {
	case EventDriven:
		return "event-driven"
	case IntervalPolled:
		return "interval-polled"
	default:
		return "unknown"
	}
}
