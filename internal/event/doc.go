// Package event provides a pub-sub event bus for observing action queues
// without coupling observers to the queue itself.
//
// A queue constructed with an event bus publishes its lifecycle on it:
// submissions, dispatches, settlements, bulk clears, idle transitions,
// depth changes, concurrency changes, pauses and resumes. The scaling
// monitor consumes depth events from the same bus.
//
// # Main Types
//
//   - [Event]: Interface that all events implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called
// synchronously on the publishing goroutine and are protected against
// panics: a panicking handler does not prevent other handlers from running.
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//
//	bus.Subscribe(event.TypeIdleChanged, func(e event.Event) {
//	    idle := e.(event.IdleChangedEvent)
//	    log.Printf("queue %s idle=%v", idle.Queue, idle.Idle)
//	})
//
//	id := bus.SubscribeAll(func(e event.Event) {
//	    log.Printf("event: %s at %v", e.EventType(), e.Timestamp())
//	})
//	bus.Unsubscribe(id)
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - queue.task_enqueued, queue.task_dispatched, queue.task_settled
//   - queue.cleared, queue.idle_changed, queue.depth_changed
//   - queue.concurrency_changed, queue.paused, queue.resumed
//   - scaling.decision
package event
