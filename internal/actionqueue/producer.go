package actionqueue

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/sourcegraph/conc/panics"
)

// Action is a unit of work submitted to a Queue. Its context is cancelled
// with cause ErrCleared if the queue is cleared while the action runs.
//
// The returned value decides how the task settles:
//   - a non-nil error fails the task with that error, unchanged;
//   - a Deferred settles the task when the Deferred settles;
//   - a Stream settles the task with its first item (or first error);
//   - any other value is the task's result.
type Action func(ctx context.Context) (any, error)

// Deferred is a value that becomes available later. Then must arrange for
// fn to be called exactly once with the eventual value or error, and must
// not block waiting for it.
type Deferred interface {
	Then(fn func(value any, err error))
}

// Stream produces values over time. A queue reads only its first item.
//
// Recv returns the next value, or io.EOF once the stream has completed.
// Close stops the stream; it may be called concurrently with a blocked Recv
// (which should then return) and more than once.
type Stream interface {
	Recv() (any, error)
	Close() error
}

// Go runs fn on a new goroutine and returns a Deferred for its outcome.
// A panic in fn becomes a *PanicError.
func Go(fn func() (any, error)) Deferred {
	h := newHandle(0)
	go func() {
		var (
			value any
			err   error
		)
		if r := catch(func() { value, err = fn() }); r != nil {
			h.settle(nil, r)
			return
		}
		h.settle(value, err)
	}()
	return h
}

// Values returns a Stream that yields the given values in order.
func Values(values ...any) Stream {
	ch := make(chan any, len(values))
	for _, v := range values {
		ch <- v
	}
	close(ch)
	return FromChannel(ch, nil)
}

// FromChannel adapts channels into a Stream. Each value received from
// values is one item; closing values completes the stream. A value received
// from errs fails the stream; errs may be nil.
func FromChannel[T any](values <-chan T, errs <-chan error) Stream {
	return &chanStream[T]{
		values: values,
		errs:   errs,
		closed: make(chan struct{}),
	}
}

type chanStream[T any] struct {
	values    <-chan T
	errs      <-chan error
	closed    chan struct{}
	closeOnce sync.Once
}

func (s *chanStream[T]) Recv() (any, error) {
	select {
	case v, ok := <-s.values:
		if !ok {
			return nil, io.EOF
		}
		return v, nil
	case err := <-s.errs:
		return nil, err
	case <-s.closed:
		return nil, io.EOF
	}
}

func (s *chanStream[T]) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

// firstItem reads the first item of s and closes it. An empty stream fails
// with ErrEmptyStream. Cancelling ctx closes the stream so a blocked Recv
// can return.
func firstItem(ctx context.Context, s Stream) (any, error) {
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	var (
		value any
		err   error
	)
	if r := catch(func() { value, err = s.Recv() }); r != nil {
		_ = s.Close()
		return nil, r
	}
	_ = s.Close()

	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyStream
	}
	return value, err
}

// catch runs fn and converts a panic into a *PanicError.
func catch(fn func()) *PanicError {
	var pc panics.Catcher
	pc.Try(fn)
	if r := pc.Recovered(); r != nil {
		return &PanicError{Value: r.Value, Stack: r.Stack}
	}
	return nil
}
