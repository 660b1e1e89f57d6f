// Package queue buffers requests until whatever serves them is ready.
//
// Requests are keyed by the kind of change they make. While the queue is
// stopped a request replaces any pending request with the same key, so
// only the latest intent survives. Once started, requests run immediately.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ericyan/omnimedia/internal/log"
)

// ErrQueueReset is returned by WaitForFlush when the queue is reset or
// destroyed before the next flush.
var ErrQueueReset = errors.New("queue: reset before flush")

// Key identifies a class of request.
type Key string

// Func is a buffered request.
type Func func() error

// ErrorHandler receives errors returned, or panics raised, by requests.
type ErrorHandler func(key Key, err error)

type entry struct {
	key Key
	fn  Func
}

// Queue is a keyed request buffer. The zero value is not usable; call New.
type Queue struct {
	name    string
	onError ErrorHandler

	mu      sync.Mutex
	serving bool
	pending map[Key]*entry
	order   []Key
	flushed chan struct{}
	reset   chan struct{}
}

// Option configures a Queue.
type Option func(*Queue)

// WithName sets the name used in log messages.
func WithName(name string) Option {
	return func(q *Queue) {
		q.name = name
	}
}

// WithErrorHandler replaces the default handler, which logs the error.
func WithErrorHandler(h ErrorHandler) Option {
	return func(q *Queue) {
		q.onError = h
	}
}

// New returns a stopped queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		name:    "queue",
		pending: make(map[Key]*entry),
		flushed: make(chan struct{}),
		reset:   make(chan struct{}),
	}
	q.onError = q.logError
	for _, opt := range opts {
		opt(q)
	}

	return q
}

func (q *Queue) logError(key Key, err error) {
	log.WithFields(log.Fields{"queue": q.name, "key": key}).WithError(err).Warn("queue: request failed")
}

// Queue runs fn at once if the queue is serving. Otherwise it stores fn as
// the pending request for key, replacing any earlier one.
func (q *Queue) Queue(key Key, fn Func) {
	q.mu.Lock()
	if q.serving {
		q.mu.Unlock()
		q.run(key, fn)
		return
	}

	if e, ok := q.pending[key]; ok {
		e.fn = fn
	} else {
		q.pending[key] = &entry{key, fn}
		q.order = append(q.order, key)
	}
	q.mu.Unlock()

	log.WithFields(log.Fields{"queue": q.name, "key": key}).Debug("queue: request buffered")
}

// Serve runs and removes the pending request for key. It does nothing if
// no request is pending.
func (q *Queue) Serve(key Key) {
	q.mu.Lock()
	e, ok := q.pending[key]
	if ok {
		q.remove(key)
	}
	q.mu.Unlock()

	if ok {
		q.run(e.key, e.fn)
	}
}

// Flush runs every pending request in insertion order, clears the queue
// and releases callers waiting in WaitForFlush. Requests queued while the
// flush runs are not part of it.
func (q *Queue) Flush() {
	q.mu.Lock()
	entries := make([]*entry, 0, len(q.order))
	for _, key := range q.order {
		entries = append(entries, q.pending[key])
	}
	q.pending = make(map[Key]*entry)
	q.order = nil

	flushed := q.flushed
	q.flushed = make(chan struct{})
	q.mu.Unlock()

	for _, e := range entries {
		q.run(e.key, e.fn)
	}

	close(flushed)
}

// Start makes the queue serve requests immediately and flushes whatever
// is pending.
func (q *Queue) Start() {
	q.mu.Lock()
	q.serving = true
	q.mu.Unlock()

	q.Flush()
}

// Stop makes the queue buffer requests again.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.serving = false
	q.mu.Unlock()
}

// Reset drops every pending request without running it and releases
// callers waiting in WaitForFlush with ErrQueueReset.
func (q *Queue) Reset() {
	q.mu.Lock()
	n := len(q.order)
	q.pending = make(map[Key]*entry)
	q.order = nil

	reset := q.reset
	q.reset = make(chan struct{})
	q.mu.Unlock()

	close(reset)

	if n > 0 {
		log.WithFields(log.Fields{"queue": q.name, "dropped": n}).Debug("queue: reset")
	}
}

// Destroy stops the queue and resets it.
func (q *Queue) Destroy() {
	q.Stop()
	q.Reset()
}

// WaitForFlush blocks until the next flush completes. Flushes that
// finished before the call do not count.
func (q *Queue) WaitForFlush(ctx context.Context) error {
	q.mu.Lock()
	flushed, reset := q.flushed, q.reset
	q.mu.Unlock()

	select {
	case <-flushed:
		return nil
	case <-reset:
		return ErrQueueReset
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Size returns the number of pending requests.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.order)
}

// IsServing returns true if requests run immediately.
func (q *Queue) IsServing() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.serving
}

// Keys returns the pending keys in insertion order.
func (q *Queue) Keys() []Key {
	q.mu.Lock()
	defer q.mu.Unlock()

	return append([]Key(nil), q.order...)
}

// remove must be called with q.mu held.
func (q *Queue) remove(key Key) {
	delete(q.pending, key)
	for i, k := range q.order {
		if k == key {
			q.order = append(q.order[:i:i], q.order[i+1:]...)
			return
		}
	}
}

func (q *Queue) run(key Key, fn Func) {
	defer func() {
		if r := recover(); r != nil {
			q.onError(key, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := fn(); err != nil {
		q.onError(key, err)
	}
}
