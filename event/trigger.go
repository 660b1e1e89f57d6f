package event

import "context"

// WalkTriggerChain calls visit for every trigger of e, most recent first,
// until it reaches the root. The event e itself is not visited. If visit
// returns true the walk stops and the visited event is returned.
func WalkTriggerChain(e *Event, visit func(*Event) bool) *Event {
	if e == nil {
		return nil
	}

	for t := e.trigger; t != nil; t = t.trigger {
		if visit(t) {
			return t
		}
	}

	return nil
}

// FindTriggerEvent returns the most recent trigger of e with the given
// type, or nil.
func FindTriggerEvent(e *Event, eventType string) *Event {
	return WalkTriggerChain(e, func(t *Event) bool {
		return t.Type == eventType
	})
}

// HasTriggerEvent returns true if the trigger chain of e contains an event
// of the given type.
func HasTriggerEvent(e *Event, eventType string) bool {
	return FindTriggerEvent(e, eventType) != nil
}

// ChainLength returns the number of events in the chain starting at e.
func ChainLength(e *Event) int {
	n := 0
	for ; e != nil; e = e.trigger {
		n++
	}

	return n
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying e as the trigger for whatever
// the callee emits.
func NewContext(ctx context.Context, e *Event) context.Context {
	return context.WithValue(ctx, ctxKey{}, e)
}

// FromContext returns the trigger event carried by ctx, or nil.
func FromContext(ctx context.Context) *Event {
	if ctx == nil {
		return nil
	}

	e, _ := ctx.Value(ctxKey{}).(*Event)
	return e
}
