// Package store provides observable values for sharing media state with
// any number of independent components.
package store

import (
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"
)

// Readable is a value that can be read and observed.
type Readable[T any] interface {
	// Get returns the current value.
	Get() T
	// Subscribe calls fn with the current value, then after every change.
	Subscribe(fn func(T)) (unsubscribe func())
}

// Source is the untyped change notification side of a store, used to
// combine stores of different types.
type Source interface {
	watch(fn func()) (unwatch func())
}

type subscriber[T any] struct {
	fn     func(T)
	active atomic.Bool
}

// cell holds a value and its subscribers. Notifications are serialized
// per cell: a value stored while subscribers are being notified, whether
// by one of them or by another goroutine, is delivered by the running
// notification, and subscribers that have not yet seen the superseded
// value skip it. Every subscriber therefore ends on the latest value.
type cell[T any] struct {
	mu        sync.Mutex
	value     T
	version   uint64
	notifying bool
	list      []*subscriber[T]
}

func (c *cell[T]) get() T {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.value
}

// store replaces the value without notifying.
func (c *cell[T]) store(v T) {
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()
}

// update stores the value returned by fn when fn reports a change, then
// notifies subscribers. fn runs under the cell lock and must not use the
// cell.
func (c *cell[T]) update(fn func(cur T) (T, bool)) {
	c.mu.Lock()
	v, changed := fn(c.value)
	if !changed {
		c.mu.Unlock()
		return
	}
	c.value = v
	c.version++
	if c.notifying {
		c.mu.Unlock()
		return
	}
	c.notifying = true
	c.mu.Unlock()

	c.drain()
}

func (c *cell[T]) drain() {
	done := false
	defer func() {
		if !done {
			c.mu.Lock()
			c.notifying = false
			c.mu.Unlock()
		}
	}()

	c.mu.Lock()
	for {
		version, value := c.version, c.value
		list := slices.Clone(c.list)
		c.mu.Unlock()

		for _, sub := range list {
			if c.superseded(version) {
				break
			}
			if sub.active.Load() {
				sub.fn(value)
			}
		}

		c.mu.Lock()
		if c.version == version {
			c.notifying = false
			c.mu.Unlock()
			done = true
			return
		}
	}
}

func (c *cell[T]) superseded(version uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.version != version
}

// add registers fn. Removing a subscriber while a notification is running
// is safe; it will not be called again.
func (c *cell[T]) add(fn func(T)) (*subscriber[T], func()) {
	sub := &subscriber[T]{fn: fn}
	sub.active.Store(true)

	c.mu.Lock()
	c.list = append(c.list, sub)
	c.mu.Unlock()

	return sub, func() {
		if !sub.active.CompareAndSwap(true, false) {
			return
		}

		c.mu.Lock()
		c.list = lo.Without(c.list, sub)
		c.mu.Unlock()
	}
}

func (c *cell[T]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.list)
}

// Option configures a Writable.
type Option[T any] func(*Writable[T])

// WithEqual sets the function deciding whether a Set is a change.
func WithEqual[T any](equal func(a, b T) bool) Option[T] {
	return func(w *Writable[T]) {
		w.equal = equal
	}
}

// Writable is a value that can be set and observed.
type Writable[T any] struct {
	equal func(a, b T) bool
	cell  cell[T]
}

// New returns a writable store holding initial.
func New[T any](initial T, opts ...Option[T]) *Writable[T] {
	w := &Writable[T]{
		equal: func(a, b T) bool { return reflect.DeepEqual(a, b) },
	}
	w.cell.value = initial
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Get returns the current value.
func (w *Writable[T]) Get() T {
	return w.cell.get()
}

// Set stores v and notifies subscribers if it differs from the current
// value. Subscribers observe v only after it is stored.
func (w *Writable[T]) Set(v T) {
	w.cell.update(func(cur T) (T, bool) {
		return v, !w.equal(cur, v)
	})
}

// Update sets the value returned by fn applied to the current value. The
// read and the write are atomic; fn must not use the store.
func (w *Writable[T]) Update(fn func(T) T) {
	w.cell.update(func(cur T) (T, bool) {
		v := fn(cur)
		return v, !w.equal(cur, v)
	})
}

// Subscribe calls fn with the current value, then after every change.
func (w *Writable[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	sub, unsubscribe := w.cell.add(fn)
	if sub.active.Load() {
		fn(w.Get())
	}

	return unsubscribe
}

func (w *Writable[T]) watch(fn func()) func() {
	_, unwatch := w.cell.add(func(T) { fn() })
	return unwatch
}

// Readonly returns a view of w that cannot be set.
func (w *Writable[T]) Readonly() Readable[T] {
	return readonly[T]{w}
}

// Subscribers returns the number of active subscribers.
func (w *Writable[T]) Subscribers() int {
	return w.cell.len()
}

type readonly[T any] struct {
	w *Writable[T]
}

func (r readonly[T]) Get() T                              { return r.w.Get() }
func (r readonly[T]) Subscribe(fn func(T)) (unsub func()) { return r.w.Subscribe(fn) }
func (r readonly[T]) watch(fn func()) func()              { return r.w.watch(fn) }

// Watchable returns the change notification side of r, which must be a
// store from this package.
func Watchable[T any](r Readable[T]) Source {
	s, _ := r.(Source)
	return s
}
