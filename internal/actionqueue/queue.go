package actionqueue

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/Iron-Ham/actionqueue/internal/broadcast"
	"github.com/Iron-Ham/actionqueue/internal/event"
	"github.com/Iron-Ham/actionqueue/internal/logging"
)

// task is one submitted action and its bookkeeping.
type task struct {
	id         uint64
	action     Action
	handle     *Handle
	ctx        context.Context
	cancel     context.CancelCauseFunc
	enqueuedAt time.Time
	startedAt  time.Time

	// Guarded by Queue.mu.
	cancelled bool
	finished  bool

	// A task invokes its action only after the task dispatched before it
	// has invoked its own, so invocation order matches dispatch order.
	after   <-chan struct{}
	started chan struct{}
}

// settlement is a handle outcome to deliver once Queue.mu is released.
type settlement struct {
	task  *task
	value any
	err   error
}

// effects collects work produced while holding Queue.mu that must run after
// it is released: handle settlement, idle delivery, goroutine launch and
// event publication all call out to user code.
type effects struct {
	settle []settlement
	launch []*task
	events []event.Event
}

// Status is a point-in-time snapshot of a queue.
type Status struct {
	Pending     int  `json:"pending"`
	Running     int  `json:"running"`
	Concurrency int  `json:"concurrency"`
	Paused      bool `json:"paused"`
	Idle        bool `json:"idle"`
}

// Queue runs submitted actions in FIFO order, at most Concurrency at a time.
// All methods are safe for concurrent use via an internal mutex.
type Queue struct {
	mu          sync.Mutex
	pending     []*task
	running     map[*task]struct{}
	concurrency int
	paused      bool
	idle        bool // mirrors idleSig; true iff pending and running are empty
	nextID      uint64
	lastStart   <-chan struct{}

	name    string
	ctx     context.Context
	idleSig *broadcast.Value[bool]
	logger  *logging.Logger
	bus     *event.Bus
}

// New creates a Queue. An initial concurrency below 1 is replaced by 1 and
// logged as a warning; construction never fails.
func New(opts ...Option) *Queue {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	logger = logger.WithQueue(cfg.name)

	if cfg.concurrency < 1 {
		logger.Warn("concurrency must be a positive integer, using 1", "requested", cfg.concurrency)
		cfg.concurrency = 1
	}

	q := &Queue{
		running:     make(map[*task]struct{}),
		concurrency: cfg.concurrency,
		paused:      cfg.paused,
		idle:        true,
		name:        cfg.name,
		ctx:         cfg.ctx,
		idleSig:     broadcast.New(true),
		logger:      logger,
		bus:         cfg.bus,
	}
	q.idleSig.OnPanic(func(r *panics.Recovered) {
		q.logger.Error("idle subscriber panicked", "panic", fmt.Sprint(r.Value), "stack", string(r.Stack))
	})
	return q
}

func (q *Queue) newHandle(id uint64) *Handle {
	h := newHandle(id)
	h.onPanic = func(r *panics.Recovered) {
		q.logger.Error("handle continuation panicked", "task_id", id, "panic", fmt.Sprint(r.Value), "stack", string(r.Stack))
	}
	return h
}

// Name returns the queue's name.
func (q *Queue) Name() string {
	return q.name
}

// Enqueue submits action and returns its handle. The queue stops being idle
// before Enqueue returns, even if the action cannot start yet.
//
// A nil action is not queued; its handle fails with ErrNilAction.
func (q *Queue) Enqueue(action Action) *Handle {
	if action == nil {
		h := q.newHandle(0)
		h.settle(nil, ErrNilAction)
		return h
	}

	var fx effects
	q.mu.Lock()
	q.nextID++
	ctx, cancel := context.WithCancelCause(q.ctx)
	t := &task{
		id:         q.nextID,
		action:     action,
		handle:     q.newHandle(q.nextID),
		ctx:        ctx,
		cancel:     cancel,
		enqueuedAt: time.Now(),
	}
	q.pending = append(q.pending, t)
	q.setIdleLocked(false, &fx)
	fx.events = append(fx.events, event.NewTaskEnqueuedEvent(q.name, t.id, len(q.pending)))
	q.dispatchLocked(&fx)
	q.depthLocked(&fx)
	q.mu.Unlock()

	q.apply(&fx)
	return t.handle
}

// Clear cancels every pending and running task. Their handles fail with
// ErrCleared, the contexts of running actions are cancelled with that
// cause, and any result those actions later produce is discarded. The
// queue is idle afterwards.
func (q *Queue) Clear() {
	var fx effects
	q.mu.Lock()
	cleared := make([]*task, 0, len(q.running)+len(q.pending))
	for t := range q.running {
		cleared = append(cleared, t)
	}
	slices.SortFunc(cleared, func(a, b *task) int { return cmp.Compare(a.id, b.id) })
	running, pending := len(cleared), len(q.pending)
	cleared = append(cleared, q.pending...)

	for _, t := range cleared {
		t.cancelled = true
		fx.settle = append(fx.settle, settlement{task: t, err: ErrCleared})
	}
	clear(q.running)
	q.pending = nil
	q.setIdleLocked(true, &fx)
	fx.events = append(fx.events, event.NewQueueClearedEvent(q.name, pending, running))
	q.depthLocked(&fx)
	q.mu.Unlock()

	for _, t := range cleared {
		t.cancel(ErrCleared)
	}
	if len(cleared) > 0 {
		q.logger.Info("queue cleared", "pending", pending, "running", running)
	}
	q.apply(&fx)
}

// Pause stops new tasks from starting. Running tasks are unaffected.
func (q *Queue) Pause() {
	var fx effects
	q.mu.Lock()
	if q.paused {
		q.mu.Unlock()
		return
	}
	q.paused = true
	fx.events = append(fx.events, event.NewPauseChangedEvent(q.name, true))
	q.depthLocked(&fx)
	q.mu.Unlock()

	q.logger.Debug("queue paused")
	q.apply(&fx)
}

// Resume lets pending tasks start again after Pause.
func (q *Queue) Resume() {
	var fx effects
	q.mu.Lock()
	if !q.paused {
		q.mu.Unlock()
		return
	}
	q.paused = false
	fx.events = append(fx.events, event.NewPauseChangedEvent(q.name, false))
	q.dispatchLocked(&fx)
	q.depthLocked(&fx)
	q.mu.Unlock()

	q.logger.Debug("queue resumed", "started", len(fx.launch))
	q.apply(&fx)
}

// UpdateConcurrency changes the concurrency limit. Values below 1 are
// rejected with an error wrapping ErrInvalidConcurrency and leave the queue
// unchanged. Raising the limit starts pending tasks immediately; lowering
// it never interrupts running tasks.
func (q *Queue) UpdateConcurrency(n int) error {
	if n < 1 {
		q.logger.Warn("rejected concurrency update", "requested", n)
		return fmt.Errorf("%w: got %d", ErrInvalidConcurrency, n)
	}

	var fx effects
	q.mu.Lock()
	prev := q.concurrency
	q.concurrency = n
	if prev != n {
		fx.events = append(fx.events, event.NewConcurrencyChangedEvent(q.name, prev, n))
	}
	q.dispatchLocked(&fx)
	if prev != n {
		q.depthLocked(&fx)
	}
	q.mu.Unlock()

	if prev != n {
		q.logger.Info("concurrency updated", "from", prev, "to", n)
	}
	q.apply(&fx)
	return nil
}

// QueueSize returns the number of tasks waiting to start. Running tasks are
// not counted.
func (q *Queue) QueueSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Running returns the number of tasks currently occupying a slot.
func (q *Queue) Running() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.running)
}

// Concurrency returns the current concurrency limit.
func (q *Queue) Concurrency() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.concurrency
}

// Paused reports whether the queue is paused.
func (q *Queue) Paused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

// Idle reports whether no tasks are pending or running.
func (q *Queue) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.idle
}

// Status returns a snapshot of the queue's counters.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.statusLocked()
}

// SubscribeIdle calls fn with the current idle state, then again each time
// it changes. Consecutive calls never repeat a value. Calls are made without
// the queue lock held, so fn may use the queue. The returned function ends
// the subscription.
func (q *Queue) SubscribeIdle(fn func(idle bool)) (cancel func()) {
	return q.idleSig.Subscribe(fn)
}

// WaitIdle blocks until the queue is idle or ctx ends, returning ctx's
// cause in the latter case.
func (q *Queue) WaitIdle(ctx context.Context) error {
	idle := make(chan struct{})
	var once sync.Once
	cancel := q.SubscribeIdle(func(v bool) {
		if v {
			once.Do(func() { close(idle) })
		}
	})
	defer cancel()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

func (q *Queue) statusLocked() Status {
	return Status{
		Pending:     len(q.pending),
		Running:     len(q.running),
		Concurrency: q.concurrency,
		Paused:      q.paused,
		Idle:        q.idle,
	}
}

// dispatchLocked moves tasks from pending to running while the queue is not
// paused and has free slots. Launching happens in apply.
func (q *Queue) dispatchLocked(fx *effects) {
	for !q.paused && len(q.running) < q.concurrency && len(q.pending) > 0 {
		t := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]

		q.running[t] = struct{}{}
		t.startedAt = time.Now()
		t.after = q.lastStart
		t.started = make(chan struct{})
		q.lastStart = t.started

		fx.launch = append(fx.launch, t)
		fx.events = append(fx.events, event.NewTaskDispatchedEvent(q.name, t.id, t.startedAt.Sub(t.enqueuedAt)))
	}
	if len(q.pending) == 0 {
		q.pending = nil
	}
}

func (q *Queue) setIdleLocked(idle bool, fx *effects) {
	if q.idle == idle {
		return
	}
	q.idle = idle
	q.idleSig.Set(idle)
	fx.events = append(fx.events, event.NewIdleChangedEvent(q.name, idle))
}

func (q *Queue) depthLocked(fx *effects) {
	if q.bus == nil {
		return
	}
	s := q.statusLocked()
	fx.events = append(fx.events, event.NewQueueDepthChangedEvent(q.name, s.Pending, s.Running, s.Concurrency, s.Paused))
}

// apply performs the effects collected under the lock. Launched tasks are
// started first but held until apply returns, so handles settle before idle
// observers hear about the state that settlement produced, and events are
// published before launched tasks can produce events of their own.
func (q *Queue) apply(fx *effects) {
	if len(fx.launch) > 0 {
		release := make(chan struct{})
		defer close(release)
		for _, t := range fx.launch {
			go q.run(t, release)
		}
	}

	for _, s := range fx.settle {
		s.task.handle.settle(s.value, s.err)
	}
	q.idleSig.Flush()
	if q.bus != nil {
		for _, e := range fx.events {
			q.bus.Publish(e)
		}
	}
}

// run invokes a dispatched task's action once release is closed and the
// previously dispatched task has started, and routes its outcome, whatever
// its shape, to complete.
func (q *Queue) run(t *task, release <-chan struct{}) {
	<-release
	if t.after != nil {
		<-t.after
	}
	close(t.started)

	// Cleared between dispatch and launch.
	if errors.Is(context.Cause(t.ctx), ErrCleared) {
		q.complete(t, nil, ErrCleared)
		return
	}

	var (
		value any
		err   error
	)
	if p := catch(func() { value, err = t.action(t.ctx) }); p != nil {
		q.logger.Error("action panicked", "task_id", t.id, "panic", fmt.Sprint(p.Value))
		q.complete(t, nil, p)
		return
	}
	if err != nil {
		q.complete(t, nil, err)
		return
	}

	switch res := value.(type) {
	case Deferred:
		if p := catch(func() {
			res.Then(func(v any, err error) { q.complete(t, v, err) })
		}); p != nil {
			q.complete(t, nil, p)
		}
	case Stream:
		v, err := firstItem(t.ctx, res)
		q.complete(t, v, err)
	default:
		q.complete(t, value, nil)
	}
}

// complete is the single point where a running task's outcome is delivered.
// Outcomes of cleared tasks, and any outcome after the first, are dropped.
func (q *Queue) complete(t *task, value any, err error) {
	var fx effects
	q.mu.Lock()
	if t.finished {
		q.mu.Unlock()
		return
	}
	t.finished = true
	delete(q.running, t)

	if t.cancelled {
		q.mu.Unlock()
		q.logger.Debug("discarded outcome of cleared task", "task_id", t.id)
		return
	}

	fx.settle = append(fx.settle, settlement{task: t, value: value, err: err})
	fx.events = append(fx.events, event.NewTaskSettledEvent(q.name, t.id, err, time.Since(t.startedAt)))
	if len(q.pending) == 0 && len(q.running) == 0 {
		q.setIdleLocked(true, &fx)
	}
	q.dispatchLocked(&fx)
	q.depthLocked(&fx)
	q.mu.Unlock()

	t.cancel(nil)
	if err != nil {
		q.logger.Debug("action failed", "task_id", t.id, "error", err.Error())
	}
	q.apply(&fx)
}
