package store

import (
	"reflect"
	"sync"
)

// Derived is a read-only store computed from other stores. It only
// observes its sources while it has subscribers, and it only notifies
// when the computed value changes.
type Derived[T any] struct {
	compute func() T
	sources []Source
	equal   func(a, b T) bool

	mu      sync.Mutex
	active  bool
	unwatch []func()
	cell    cell[T]
}

// Derive returns a store whose value is compute(), recomputed whenever one
// of sources changes.
func Derive[T any](compute func() T, sources ...Source) *Derived[T] {
	d := &Derived[T]{
		compute: compute,
		equal:   func(a, b T) bool { return reflect.DeepEqual(a, b) },
	}
	for _, s := range sources {
		if s != nil {
			d.sources = append(d.sources, s)
		}
	}

	return d
}

// Derive2 combines two stores with fn.
func Derive2[A, B, T any](a Readable[A], b Readable[B], fn func(A, B) T) *Derived[T] {
	return Derive(func() T {
		return fn(a.Get(), b.Get())
	}, Watchable(a), Watchable(b))
}

// Get returns the current value. Without subscribers it is computed on
// every call.
func (d *Derived[T]) Get() T {
	if d.isActive() {
		return d.cell.get()
	}

	return d.compute()
}

// Subscribe calls fn with the current value, then after every change.
func (d *Derived[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	unsubscribe = d.add(fn)
	fn(d.Get())

	return unsubscribe
}

func (d *Derived[T]) watch(fn func()) func() {
	return d.add(func(T) { fn() })
}

func (d *Derived[T]) add(fn func(T)) func() {
	d.start()

	_, remove := d.cell.add(fn)

	return func() {
		remove()
		if d.cell.len() == 0 {
			d.stop()
		}
	}
}

func (d *Derived[T]) isActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.active
}

func (d *Derived[T]) start() {
	d.mu.Lock()
	if d.active {
		d.mu.Unlock()
		return
	}
	d.active = true
	d.mu.Unlock()

	d.cell.store(d.compute())

	for _, s := range d.sources {
		unwatch := s.watch(d.recompute)

		d.mu.Lock()
		if !d.active {
			d.mu.Unlock()
			unwatch()
			return
		}
		d.unwatch = append(d.unwatch, unwatch)
		d.mu.Unlock()
	}
}

func (d *Derived[T]) stop() {
	d.mu.Lock()
	unwatch := d.unwatch
	d.active = false
	d.unwatch = nil
	d.mu.Unlock()

	for _, fn := range unwatch {
		fn()
	}
}

// recompute runs under the cell lock, so concurrent source changes are
// applied in order.
func (d *Derived[T]) recompute() {
	d.cell.update(func(cur T) (T, bool) {
		if !d.isActive() {
			return cur, false
		}

		v := d.compute()
		return v, !d.equal(cur, v)
	})
}
