package store

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// Proxy is a read-only store that mirrors whichever source it is pointed
// at, or a fallback value when it has none. Subscribers keep their
// subscription across source changes.
type Proxy[T any] struct {
	fallback T
	equal    func(a, b T) bool

	mu     sync.Mutex
	src    Readable[T]
	unsub  func()
	serial atomic.Uint64
	cell   cell[T]
}

// NewProxy returns a proxy without source.
func NewProxy[T any](fallback T) *Proxy[T] {
	p := &Proxy[T]{
		fallback: fallback,
		equal:    func(a, b T) bool { return reflect.DeepEqual(a, b) },
	}
	p.cell.value = fallback

	return p
}

// SetSource points the proxy at src. A nil src reverts to the fallback.
func (p *Proxy[T]) SetSource(src Readable[T]) {
	p.mu.Lock()
	unsub := p.unsub
	p.src = src
	p.unsub = nil
	serial := p.serial.Add(1)
	p.mu.Unlock()

	if unsub != nil {
		unsub()
	}

	if src == nil {
		p.set(serial, p.fallback)
		return
	}

	unsub = src.Subscribe(func(v T) { p.set(serial, v) })

	p.mu.Lock()
	if p.serial.Load() == serial {
		p.unsub = unsub
		unsub = nil
	}
	p.mu.Unlock()

	// The source was replaced while subscribing.
	if unsub != nil {
		unsub()
	}
}

// set mirrors v unless the source it came from has been replaced.
func (p *Proxy[T]) set(serial uint64, v T) {
	p.cell.update(func(cur T) (T, bool) {
		return v, p.serial.Load() == serial && !p.equal(cur, v)
	})
}

// Get returns the mirrored value.
func (p *Proxy[T]) Get() T {
	return p.cell.get()
}

// Subscribe calls fn with the current value, then after every change of
// the mirrored value.
func (p *Proxy[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	sub, unsubscribe := p.cell.add(fn)
	if sub.active.Load() {
		fn(p.Get())
	}

	return unsubscribe
}

func (p *Proxy[T]) watch(fn func()) func() {
	_, unwatch := p.cell.add(func(T) { fn() })
	return unwatch
}
