package sim

// Cycle is the unit of simulated time. The network advances one Cycle per
// driver step.
type Cycle uint64

// An Event is something going to happen at a future cycle.
type Event interface {
	// Time returns the cycle at which the event is delivered.
	Time() Cycle

	// Handler returns the handler that should handle the event.
	Handler() Handler
}

// A Handler defines a domain for the events.
//
// Routers and servers are handlers. An event is only ever delivered to the
// handler it was scheduled for, so a handler never mutates another handler's
// state directly.
type Handler interface {
	Handle(e Event) error
}

// EventBase provides the basic fields and getters for other events
type EventBase struct {
	ID      string
	time    Cycle
	handler Handler
}

// NewEventBase creates a new EventBase
func NewEventBase(t Cycle, handler Handler) *EventBase {
	e := new(EventBase)
	e.time = t
	e.handler = handler

	return e
}

// Time returns the cycle that the event is going to happen
func (e EventBase) Time() Cycle {
	return e.time
}

// Handler returns the handler to handle the event.
func (e EventBase) Handler() Handler {
	return e.handler
}
