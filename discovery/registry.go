package discovery

import "sync"

// Registry tracks the active members of a set in registration order.
type Registry[T any] struct {
	mu      sync.Mutex
	next    uint64
	ids     []uint64
	members map[uint64]T
}

// Register adds v and returns the function removing it again. The
// function is idempotent.
func (r *Registry[T]) Register(v T) (unregister func()) {
	r.mu.Lock()
	if r.members == nil {
		r.members = make(map[uint64]T)
	}
	id := r.next
	r.next++
	r.ids = append(r.ids, id)
	r.members[id] = v
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if _, ok := r.members[id]; !ok {
			return
		}
		delete(r.members, id)
		for i, x := range r.ids {
			if x == id {
				r.ids = append(r.ids[:i:i], r.ids[i+1:]...)
				break
			}
		}
	}
}

// Values returns a snapshot of the members in registration order.
func (r *Registry[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	vs := make([]T, 0, len(r.ids))
	for _, id := range r.ids {
		vs = append(vs, r.members[id])
	}

	return vs
}

// Each calls fn for a snapshot of the members.
func (r *Registry[T]) Each(fn func(T)) {
	for _, v := range r.Values() {
		fn(v)
	}
}

// Len returns the number of members.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.ids)
}
