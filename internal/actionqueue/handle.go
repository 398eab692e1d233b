package actionqueue

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc/panics"
)

// Handle is the caller's view of one submitted action. It settles exactly
// once, with either a value or an error.
//
// Handle implements Deferred, so an action may return another queue's
// handle and the task settles when that handle does.
type Handle struct {
	id      uint64
	done    chan struct{}
	onPanic func(*panics.Recovered) // receives panics from continuations

	mu            sync.Mutex
	settled       bool
	value         any
	err           error
	continuations []func(any, error)
}

func newHandle(id uint64) *Handle {
	return &Handle{id: id, done: make(chan struct{})}
}

// ID returns the task's sequence number within its queue. Handles not
// created by a queue (see Go) report 0.
func (h *Handle) ID() uint64 {
	return h.id
}

// Done returns a channel that is closed once the handle has settled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Await blocks until the handle settles or ctx ends. When ctx ends first,
// it returns ctx's cause; the handle itself is unaffected.
func (h *Handle) Await(ctx context.Context) (any, error) {
	select {
	case <-h.done:
		return h.result()
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}
}

// Result blocks until the handle settles and returns its outcome.
func (h *Handle) Result() (any, error) {
	<-h.done
	return h.result()
}

// Settled reports whether the handle has settled.
func (h *Handle) Settled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.settled
}

// Then registers fn to run once the handle settles. If it already has, fn
// runs immediately on the calling goroutine; otherwise it runs on the
// goroutine that settles the handle.
func (h *Handle) Then(fn func(value any, err error)) {
	h.mu.Lock()
	if !h.settled {
		h.continuations = append(h.continuations, fn)
		h.mu.Unlock()
		return
	}
	value, err := h.value, h.err
	h.mu.Unlock()
	fn(value, err)
}

func (h *Handle) result() (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value, h.err
}

// settle records the outcome and runs continuations. It reports false,
// changing nothing, if the handle had already settled. A panicking
// continuation does not stop the others.
func (h *Handle) settle(value any, err error) bool {
	h.mu.Lock()
	if h.settled {
		h.mu.Unlock()
		return false
	}
	h.settled = true
	h.value, h.err = value, err
	continuations := h.continuations
	h.continuations = nil
	close(h.done)
	h.mu.Unlock()

	for _, fn := range continuations {
		var pc panics.Catcher
		pc.Try(func() { fn(value, err) })
		if r := pc.Recovered(); r != nil && h.onPanic != nil {
			h.onPanic(r)
		}
	}
	return true
}
