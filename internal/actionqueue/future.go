package actionqueue

import (
	"context"
	"fmt"
)

// Future is a typed view of a Handle whose action returns T.
type Future[T any] struct {
	handle *Handle
}

// Submit enqueues fn on q and returns a typed Future for its result.
//
// T should be a plain value type: if fn returns a Deferred or Stream, the
// task settles with what that produces, which Await then has to convert.
func Submit[T any](q *Queue, fn func(ctx context.Context) (T, error)) *Future[T] {
	if fn == nil {
		return &Future[T]{handle: q.Enqueue(nil)}
	}
	return &Future[T]{handle: q.Enqueue(func(ctx context.Context) (any, error) {
		return fn(ctx)
	})}
}

// Handle returns the untyped handle.
func (f *Future[T]) Handle() *Handle {
	return f.handle
}

// Done returns a channel that is closed once the future has settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.handle.Done()
}

// Await blocks until the future settles or ctx ends.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	v, err := f.handle.Await(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return convert[T](v)
}

func convert[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("actionqueue: result has type %T, want %T", v, zero)
	}
	return typed, nil
}
