package middleware

import "sync"

// Handle removes a registered stage.
type Handle struct {
	remove func() bool
}

// Remove unregisters the stage. It reports whether the stage was still
// registered; removing twice is a no-op.
func (h Handle) Remove() bool {
	if h.remove == nil {
		return false
	}
	return h.remove()
}

type entry[T any] struct {
	id    uint64
	value T
}

// Registry is an ordered, concurrency-safe list of values with removal
// handles. Readers take snapshots, so a dispatch in flight is unaffected by
// concurrent registration or removal.
type Registry[T any] struct {
	mu      sync.RWMutex
	nextID  uint64
	entries []entry[T]
}

// Add appends v and returns a handle that removes it.
func (r *Registry[T]) Add(v T) Handle {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.entries = append(r.entries, entry[T]{id: id, value: v})
	r.mu.Unlock()

	return Handle{remove: func() bool { return r.delete(id) }}
}

func (r *Registry[T]) delete(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns the registered values in registration order.
func (r *Registry[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.entries) == 0 {
		return nil
	}
	out := make([]T, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.value
	}
	return out
}

// Len returns the number of registered values.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
