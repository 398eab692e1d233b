// Package actionqueue provides a bounded-concurrency FIFO queue of actions.
//
// Callers submit actions with [Queue.Enqueue] (or the typed [Submit]) and get
// back a [Handle] that settles exactly once with the action's result or
// failure. At most [Queue.Concurrency] actions run at a time, and actions
// start in submission order; they may finish in any order.
//
// An action may produce its result three ways:
//   - return it directly (an immediate value);
//   - return a [Deferred], such as [Go] or another queue's [Handle];
//   - return a [Stream], such as [Values] or [FromChannel], of which only the
//     first item is used.
//
// A failing action affects only its own handle. A panic becomes a
// [*PanicError].
//
// # Control
//
//   - [Queue.Pause] and [Queue.Resume] stop and restart dispatch; running
//     actions are never interrupted.
//   - [Queue.UpdateConcurrency] changes the limit at runtime and rejects
//     values below 1 with [ErrInvalidConcurrency]. [New] is lenient instead:
//     it clamps a bad initial value to 1 and logs a warning.
//   - [Queue.Clear] cancels everything outstanding. Every affected handle
//     fails with [ErrCleared]; results that running actions produce later are
//     discarded.
//
// # Idle Signal
//
// [Queue.SubscribeIdle] reports whether the queue has nothing pending or
// running. A new subscriber receives the current state immediately, then
// only changes. The queue turns busy as soon as Enqueue is called and idle
// once the last task settles.
//
// # Usage
//
//	q := actionqueue.New(actionqueue.WithConcurrency(2))
//
//	h := q.Enqueue(func(ctx context.Context) (any, error) {
//	    return fetch(ctx, url)
//	})
//	v, err := h.Await(ctx)
//
//	f := actionqueue.Submit(q, func(ctx context.Context) (int, error) {
//	    return 42, nil
//	})
//	n, err := f.Await(ctx)
//
// # Thread Safety
//
// All methods are safe for concurrent use. Handle continuations and idle
// subscribers run without the queue lock held and may call back into the
// queue.
package actionqueue
