package event

// Context collects the events produced during one tick. It is created per
// tick, filled by the state machines, and flushed to listeners (and, when
// non-empty, triggers a snapshot save) once the tick finishes.
type Context struct {
	events []Event
}

// NewContext returns an empty per-tick event context.
func NewContext() *Context {
	return &Context{}
}

// Emit appends an event.
func (c *Context) Emit(e Event) {
	c.events = append(c.events, e)
}

// Events returns the collected events in emission order.
func (c *Context) Events() []Event {
	return c.events
}

// Any reports whether at least one event was produced.
func (c *Context) Any() bool {
	return len(c.events) > 0
}
