package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "queue.cleared").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeTaskEnqueued       = "queue.task_enqueued"
	TypeTaskDispatched     = "queue.task_dispatched"
	TypeTaskSettled        = "queue.task_settled"
	TypeQueueCleared       = "queue.cleared"
	TypeIdleChanged        = "queue.idle_changed"
	TypeDepthChanged       = "queue.depth_changed"
	TypeConcurrencyChanged = "queue.concurrency_changed"
	TypeQueuePaused        = "queue.paused"
	TypeQueueResumed       = "queue.resumed"
	TypeScalingDecision    = "scaling.decision"
)

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Task Lifecycle Events
// -----------------------------------------------------------------------------

// TaskEnqueuedEvent is emitted when an action is submitted to a queue.
type TaskEnqueuedEvent struct {
	baseEvent
	Queue   string
	TaskID  uint64
	Pending int // Pending count including the new task
}

// NewTaskEnqueuedEvent creates a TaskEnqueuedEvent.
func NewTaskEnqueuedEvent(queue string, taskID uint64, pending int) TaskEnqueuedEvent {
	return TaskEnqueuedEvent{
		baseEvent: newBaseEvent(TypeTaskEnqueued),
		Queue:     queue,
		TaskID:    taskID,
		Pending:   pending,
	}
}

// TaskDispatchedEvent is emitted when a task moves from pending to running.
type TaskDispatchedEvent struct {
	baseEvent
	Queue  string
	TaskID uint64
	Wait   time.Duration // Time spent pending
}

// NewTaskDispatchedEvent creates a TaskDispatchedEvent.
func NewTaskDispatchedEvent(queue string, taskID uint64, wait time.Duration) TaskDispatchedEvent {
	return TaskDispatchedEvent{
		baseEvent: newBaseEvent(TypeTaskDispatched),
		Queue:     queue,
		TaskID:    taskID,
		Wait:      wait,
	}
}

// TaskSettledEvent is emitted when a task's handle settles through normal
// completion. Cleared tasks are reported by QueueClearedEvent instead.
type TaskSettledEvent struct {
	baseEvent
	Queue    string
	TaskID   uint64
	Success  bool
	Error    string        // Error message (if failed)
	Duration time.Duration // Time spent running
}

// NewTaskSettledEvent creates a TaskSettledEvent.
func NewTaskSettledEvent(queue string, taskID uint64, err error, duration time.Duration) TaskSettledEvent {
	e := TaskSettledEvent{
		baseEvent: newBaseEvent(TypeTaskSettled),
		Queue:     queue,
		TaskID:    taskID,
		Success:   err == nil,
		Duration:  duration,
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// -----------------------------------------------------------------------------
// Queue State Events
// -----------------------------------------------------------------------------

// QueueClearedEvent is emitted when all outstanding tasks are cancelled.
type QueueClearedEvent struct {
	baseEvent
	Queue   string
	Pending int // Pending tasks that were cancelled
	Running int // Running tasks that were cancelled
}

// NewQueueClearedEvent creates a QueueClearedEvent.
func NewQueueClearedEvent(queue string, pending, running int) QueueClearedEvent {
	return QueueClearedEvent{
		baseEvent: newBaseEvent(TypeQueueCleared),
		Queue:     queue,
		Pending:   pending,
		Running:   running,
	}
}

// IdleChangedEvent is emitted when a queue becomes idle or busy.
type IdleChangedEvent struct {
	baseEvent
	Queue string
	Idle  bool
}

// NewIdleChangedEvent creates an IdleChangedEvent.
func NewIdleChangedEvent(queue string, idle bool) IdleChangedEvent {
	return IdleChangedEvent{
		baseEvent: newBaseEvent(TypeIdleChanged),
		Queue:     queue,
		Idle:      idle,
	}
}

// QueueDepthChangedEvent is emitted whenever the pending or running counts
// may have changed.
type QueueDepthChangedEvent struct {
	baseEvent
	Queue       string
	Pending     int
	Running     int
	Concurrency int
	Paused      bool
}

// NewQueueDepthChangedEvent creates a QueueDepthChangedEvent.
func NewQueueDepthChangedEvent(queue string, pending, running, concurrency int, paused bool) QueueDepthChangedEvent {
	return QueueDepthChangedEvent{
		baseEvent:   newBaseEvent(TypeDepthChanged),
		Queue:       queue,
		Pending:     pending,
		Running:     running,
		Concurrency: concurrency,
		Paused:      paused,
	}
}

// ConcurrencyChangedEvent is emitted when a queue's concurrency limit changes.
type ConcurrencyChangedEvent struct {
	baseEvent
	Queue    string
	Previous int
	Current  int
}

// NewConcurrencyChangedEvent creates a ConcurrencyChangedEvent.
func NewConcurrencyChangedEvent(queue string, previous, current int) ConcurrencyChangedEvent {
	return ConcurrencyChangedEvent{
		baseEvent: newBaseEvent(TypeConcurrencyChanged),
		Queue:     queue,
		Previous:  previous,
		Current:   current,
	}
}

// PauseChangedEvent is emitted when a queue is paused or resumed. Its type
// is queue.paused or queue.resumed accordingly.
type PauseChangedEvent struct {
	baseEvent
	Queue  string
	Paused bool
}

// NewPauseChangedEvent creates a PauseChangedEvent.
func NewPauseChangedEvent(queue string, paused bool) PauseChangedEvent {
	eventType := TypeQueueResumed
	if paused {
		eventType = TypeQueuePaused
	}
	return PauseChangedEvent{
		baseEvent: newBaseEvent(eventType),
		Queue:     queue,
		Paused:    paused,
	}
}

// -----------------------------------------------------------------------------
// Scaling Events
// -----------------------------------------------------------------------------

// ScalingDecisionEvent is emitted when a scaling monitor applies a decision.
type ScalingDecisionEvent struct {
	baseEvent
	Queue    string
	Action   string // "scale_up" or "scale_down"
	Previous int    // Concurrency before the decision
	Current  int    // Concurrency after the decision
	Reason   string
}

// NewScalingDecisionEvent creates a ScalingDecisionEvent.
func NewScalingDecisionEvent(queue, action string, previous, current int, reason string) ScalingDecisionEvent {
	return ScalingDecisionEvent{
		baseEvent: newBaseEvent(TypeScalingDecision),
		Queue:     queue,
		Action:    action,
		Previous:  previous,
		Current:   current,
		Reason:    reason,
	}
}
