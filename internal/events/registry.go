// Package events provides small typed publish/subscribe primitives used to
// fan timer state out to views, devices and metrics.
package events

import "sync"

type entry[L any] struct {
	id       uint64
	listener L
}

// registry keeps listeners in registration order and optionally remembers
// the last published value so late listeners can catch up.
type registry[T any, L any] struct {
	mu         sync.RWMutex
	entries    []entry[L]
	nextID     uint64
	replayLast bool
	last       T
	hasLast    bool
}

func newRegistry[T any, L any](replayLast bool) *registry[T, L] {
	return &registry[T, L]{replayLast: replayLast}
}

// add registers l and returns its id plus the value to replay, if any
func (r *registry[T, L]) add(l L) (uint64, T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.entries = append(r.entries, entry[L]{id: id, listener: l})
	return id, r.last, r.replayLast && r.hasLast
}

func (r *registry[T, L]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return
		}
	}
}

// publish stores value when replay is enabled and returns a snapshot of the
// listeners to deliver to outside the lock
func (r *registry[T, L]) publish(value T) []L {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replayLast {
		r.last = value
		r.hasLast = true
	}
	listeners := make([]L, len(r.entries))
	for i, e := range r.entries {
		listeners[i] = e.listener
	}
	return listeners
}

func (r *registry[T, L]) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *registry[T, L]) lastValue() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.hasLast
}
