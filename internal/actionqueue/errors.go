package actionqueue

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by queue operations and handles.
var (
	// ErrCleared is the failure reason of every task cancelled by Clear.
	// It is never produced by an action itself.
	ErrCleared = errors.New("actionqueue: queue has been cleared")

	// ErrInvalidConcurrency is returned by UpdateConcurrency for values below 1.
	ErrInvalidConcurrency = errors.New("actionqueue: concurrency must be a positive integer")

	// ErrEmptyStream is the failure reason of a stream action that completes
	// without producing a value.
	ErrEmptyStream = errors.New("actionqueue: stream completed without a value")

	// ErrNilAction is the failure reason of a handle returned for a nil action.
	ErrNilAction = errors.New("actionqueue: nil action")
)

// PanicError is the failure reason of an action that panicked.
type PanicError struct {
	Value any    // Value passed to panic
	Stack []byte // Stack of the panicking goroutine
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("actionqueue: panic recovered: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
