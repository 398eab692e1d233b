// Package broadcast provides a replaying, de-duplicating value broadcaster.
//
// A [Value] holds a single current value. New subscribers immediately receive
// the current value; afterwards they only receive changes. Setting a value equal
// to the current one is a no-op, so subscribers never observe the same value
// twice in a row.
//
// Recording a change and delivering it are split into [Value.Set] and
// [Value.Flush] so callers can record changes while holding their own locks
// and deliver them once those locks are released. [Value.Publish] does both.
package broadcast

import (
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/panics"
)

// update is one recorded change awaiting delivery.
type update[T comparable] struct {
	seq   uint64
	value T
}

// subscriber tracks what has already been delivered to one callback.
type subscriber[T comparable] struct {
	id        uint64
	fn        func(T)
	cancelled atomic.Bool

	mu      sync.Mutex // serializes delivery to fn
	primed  bool
	seen    uint64
	last    T
	hasLast bool
}

// deliver hands value to the subscriber unless it is stale (older than what
// the subscriber already saw) or a duplicate of the last delivered value.
// A panic in fn is recovered and passed to onPanic, if set.
func (s *subscriber[T]) deliver(seq uint64, value T, onPanic func(*panics.Recovered)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled.Load() {
		return
	}
	if s.primed && seq <= s.seen {
		return
	}
	s.primed = true
	s.seen = seq
	if s.hasLast && s.last == value {
		return
	}
	s.last = value
	s.hasLast = true

	var pc panics.Catcher
	pc.Try(func() { s.fn(value) })
	if r := pc.Recovered(); r != nil && onPanic != nil {
		onPanic(r)
	}
}

// Value is a broadcast cell for a comparable value.
// It is safe for concurrent use.
type Value[T comparable] struct {
	mu         sync.Mutex
	current    T
	seq        uint64
	backlog    []update[T]
	subs       []*subscriber[T]
	nextID     uint64
	delivering bool
	onPanic    func(*panics.Recovered)
}

// New creates a Value holding initial.
func New[T comparable](initial T) *Value[T] {
	return &Value[T]{current: initial}
}

// OnPanic sets the function that receives panics recovered from subscriber
// callbacks. Without one, such panics are dropped.
func (v *Value[T]) OnPanic(fn func(*panics.Recovered)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onPanic = fn
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Set records x as the current value and reports whether it changed.
// Subscribers are not called; the change is queued until the next Flush.
func (v *Value[T]) Set(x T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if x == v.current {
		return false
	}
	v.current = x
	v.seq++
	v.backlog = append(v.backlog, update[T]{seq: v.seq, value: x})
	return true
}

// Flush delivers queued changes to subscribers in the order they were set.
// Callbacks run without any internal lock held, so they may call back into
// the Value. If another goroutine is already flushing, Flush returns
// immediately and that goroutine delivers the pending changes.
func (v *Value[T]) Flush() {
	v.mu.Lock()
	if v.delivering {
		v.mu.Unlock()
		return
	}
	v.delivering = true
	v.mu.Unlock()

	drained := false
	defer func() {
		if !drained {
			v.mu.Lock()
			v.delivering = false
			v.mu.Unlock()
		}
	}()

	for {
		v.mu.Lock()
		if len(v.backlog) == 0 {
			v.backlog = nil
			v.delivering = false
			drained = true
			v.mu.Unlock()
			return
		}
		u := v.backlog[0]
		v.backlog[0] = update[T]{}
		v.backlog = v.backlog[1:]
		subs := make([]*subscriber[T], len(v.subs))
		copy(subs, v.subs)
		onPanic := v.onPanic
		v.mu.Unlock()

		for _, s := range subs {
			s.deliver(u.seq, u.value, onPanic)
		}
	}
}

// Publish sets x and flushes. It reports whether the value changed.
func (v *Value[T]) Publish(x T) bool {
	changed := v.Set(x)
	v.Flush()
	return changed
}

// Subscribe registers fn and immediately calls it with the current value.
// Subsequent calls happen only when the value changes. The returned function
// removes the subscription; it is safe to call more than once and from
// within fn.
func (v *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	v.mu.Lock()
	v.nextID++
	s := &subscriber[T]{id: v.nextID, fn: fn}
	current, seq := v.current, v.seq
	onPanic := v.onPanic
	v.subs = append(v.subs, s)
	v.mu.Unlock()

	s.deliver(seq, current, onPanic)

	return func() {
		s.cancelled.Store(true)
		v.remove(s.id)
	}
}

// SubscriberCount returns the number of active subscriptions.
func (v *Value[T]) SubscriberCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

func (v *Value[T]) remove(id uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i, s := range v.subs {
		if s.id == id {
			v.subs = append(v.subs[:i], v.subs[i+1:]...)
			return
		}
	}
}
