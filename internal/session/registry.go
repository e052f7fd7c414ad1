// Package session holds per-visitor state containers keyed by session id.
package session

import (
	"sync"
	"sync/atomic"
	"time"
)

type entry[T any] struct {
	value    T
	lastSeen atomic.Int64 // unix nanoseconds
}

// Registry lazily creates one T per session id and hands the same value back on every lookup.
// T is expected to synchronize its own mutations. Containers not looked up for a while are
// dropped by Sweep.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[T]
	newFn   func(id string) T
	now     func() time.Time
}

func NewRegistry[T any](newFn func(id string) T) *Registry[T] {
	return &Registry[T]{
		entries: make(map[string]*entry[T]),
		newFn:   newFn,
		now:     time.Now,
	}
}

// Get returns the container for id, creating it on first use.
func (r *Registry[T]) Get(id string) T {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if ok {
		r.touch(e)
		return e.value
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		r.touch(e)
		return e.value
	}
	e = &entry[T]{value: r.newFn(id)}
	r.touch(e)
	r.entries[id] = e
	return e.value
}

// Peek returns the container for id without creating one.
func (r *Registry[T]) Peek(id string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		var zero T
		return zero, false
	}
	r.touch(e)
	return e.value, true
}

func (r *Registry[T]) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Sweep drops containers not looked up within idle and returns how many it dropped.
func (r *Registry[T]) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle).UnixNano()

	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, e := range r.entries {
		if e.lastSeen.Load() < cutoff {
			delete(r.entries, id)
			dropped++
		}
	}
	return dropped
}

func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry[T]) touch(e *entry[T]) {
	e.lastSeen.Store(r.now().UnixNano())
}
