package element

import "sync"

// Bin collects teardown callbacks and runs them together.
type Bin struct {
	mu  sync.Mutex
	fns []func()
}

// Add appends fn to the bin. Nil functions are ignored.
func (b *Bin) Add(fns ...func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, fn := range fns {
		if fn != nil {
			b.fns = append(b.fns, fn)
		}
	}
}

// Empty runs every callback in the order they were added, exactly once,
// and leaves the bin empty. Callbacks added while emptying run in the same
// pass.
func (b *Bin) Empty() {
	for {
		b.mu.Lock()
		fns := b.fns
		b.fns = nil
		b.mu.Unlock()

		if len(fns) == 0 {
			return
		}

		for _, fn := range fns {
			fn()
		}
	}
}

// Len returns the number of pending callbacks.
func (b *Bin) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.fns)
}
