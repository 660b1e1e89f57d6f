package event

import (
	"sync"
	"sync/atomic"
)

// Listener handles a dispatched event.
type Listener func(*Event)

// Listenable is implemented by anything listeners can be attached to.
type Listenable interface {
	Listen(eventType string, fn Listener) (unlisten func())
}

type listener struct {
	fn     Listener
	active atomic.Bool
}

// Target keeps listeners by event type and delivers events to them. The
// zero value is ready to use.
type Target struct {
	mu        sync.Mutex
	listeners map[string][]*listener
}

// Listen registers fn for events of the given type. The returned function
// removes the listener and may be called more than once.
func (t *Target) Listen(eventType string, fn Listener) (unlisten func()) {
	l := &listener{fn: fn}
	l.active.Store(true)

	t.mu.Lock()
	if t.listeners == nil {
		t.listeners = make(map[string][]*listener)
	}
	t.listeners[eventType] = append(t.listeners[eventType], l)
	t.mu.Unlock()

	return func() {
		if !l.active.CompareAndSwap(true, false) {
			return
		}

		t.mu.Lock()
		defer t.mu.Unlock()

		ls := t.listeners[eventType]
		for i, x := range ls {
			if x == l {
				t.listeners[eventType] = append(ls[:i:i], ls[i+1:]...)
				break
			}
		}
		if len(t.listeners[eventType]) == 0 {
			delete(t.listeners, eventType)
		}
	}
}

// Dispatch delivers e to the listeners registered for its type when the
// dispatch starts. Listeners removed while the dispatch is in progress are
// skipped. It returns the number of listeners called.
func (t *Target) Dispatch(e *Event) int {
	t.mu.Lock()
	ls := append([]*listener(nil), t.listeners[e.Type]...)
	t.mu.Unlock()

	n := 0
	for _, l := range ls {
		if !l.active.Load() {
			continue
		}

		l.fn(e)
		n++
	}

	return n
}

// HasListeners returns true if any listener is registered for eventType.
func (t *Target) HasListeners(eventType string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.listeners[eventType]) > 0
}
