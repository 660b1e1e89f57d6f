// Package event provides the events exchanged between media components
// and the trigger chain that links every event to the one that caused it.
package event

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event is a typed notification with an optional detail payload.
//
// An event may carry a reference to the event that caused it, its
// trigger. Triggers can only be set when the event is created, so every
// trigger chain ends at a root event and never loops.
type Event struct {
	ID        uuid.UUID
	Type      string
	Detail    interface{}
	Timestamp time.Time

	trigger *Event
	trusted bool
	bubbles bool
	stopped atomic.Bool
}

// Option configures a new Event.
type Option func(*Event)

// WithDetail sets the detail payload.
func WithDetail(detail interface{}) Option {
	return func(e *Event) {
		e.Detail = detail
	}
}

// WithTrigger links the new event to the event that caused it. A nil
// trigger leaves the event as a root.
func WithTrigger(trigger *Event) Option {
	return func(e *Event) {
		e.trigger = trigger
	}
}

// Trusted marks the event as originating from real user input. Only the
// component translating input devices into events should use it.
func Trusted() Option {
	return func(e *Event) {
		e.trusted = true
	}
}

// Bubbles makes the event propagate from its target to the ancestors.
func Bubbles() Option {
	return func(e *Event) {
		e.bubbles = true
	}
}

// New returns a new event of the given type.
func New(eventType string, opts ...Option) *Event {
	e := &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// TriggerEvent returns the event that caused e, if any.
func (e *Event) TriggerEvent() *Event {
	return e.trigger
}

// IsTrusted returns true if e itself was created from real user input.
func (e *Event) IsTrusted() bool {
	return e.trusted
}

// Bubbling returns true if e propagates to the ancestors of its target.
func (e *Event) Bubbling() bool {
	return e.bubbles
}

// OriginEvent returns the root of the trigger chain, which is e itself
// when it has no trigger.
func (e *Event) OriginEvent() *Event {
	origin := e
	for origin.trigger != nil {
		origin = origin.trigger
	}

	return origin
}

// IsOriginTrusted returns true if the root of the trigger chain was
// created from real user input, however many hops separate it from e.
func (e *Event) IsOriginTrusted() bool {
	return e.OriginEvent().trusted
}

// StopPropagation prevents further delivery of e to ancestors.
func (e *Event) StopPropagation() {
	e.stopped.Store(true)
}

// IsPropagationStopped reports whether StopPropagation has been called.
func (e *Event) IsPropagationStopped() bool {
	return e.stopped.Load()
}

// String implements the fmt.Stringer interface.
func (e *Event) String() string {
	if e.trigger == nil {
		return e.Type
	}

	return e.Type + " <- " + e.trigger.String()
}
