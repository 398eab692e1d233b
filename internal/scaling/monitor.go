package scaling

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Iron-Ham/actionqueue/internal/actionqueue"
	"github.com/Iron-Ham/actionqueue/internal/event"
	"github.com/Iron-Ham/actionqueue/internal/logging"
)

// Monitor watches queue depth events on the event bus, applies a scaling
// policy and updates the queue's concurrency limit accordingly.
type Monitor struct {
	mu       sync.Mutex
	bus      *event.Bus
	policy   *Policy
	scaler   Scaler
	logger   *logging.Logger
	handlers []func(Decision)
	subID    string
	cancel   context.CancelFunc

	// applying holds the concurrency target being applied, or 0. Depth
	// events reporting that target are the echo of our own update.
	applying atomic.Int64
}

// NewMonitor creates a Monitor that evaluates policy whenever scaler's queue
// publishes a QueueDepthChangedEvent on bus.
func NewMonitor(bus *event.Bus, policy *Policy, scaler Scaler, logger *logging.Logger) *Monitor {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Monitor{
		bus:    bus,
		policy: policy,
		scaler: scaler,
		logger: logger.WithQueue(scaler.Name()).With("component", "scaling"),
	}
}

// OnDecision registers a callback that is invoked after a non-none scaling
// decision has been applied. Multiple handlers may be registered.
func (m *Monitor) OnDecision(handler func(Decision)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

// Start subscribes to queue depth events and begins evaluating the policy.
// It blocks until the context is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	subID := m.bus.Subscribe(event.TypeDepthChanged, m.handleDepth)

	m.mu.Lock()
	m.subID = subID
	m.cancel = cancel
	m.mu.Unlock()

	<-ctx.Done()
	m.bus.Unsubscribe(subID)
}

// Stop unsubscribes from events and cancels the monitor.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	subID := m.subID
	m.mu.Unlock()

	if subID != "" {
		m.bus.Unsubscribe(subID)
	}
	if cancel != nil {
		cancel()
	}
}

func (m *Monitor) handleDepth(e event.Event) {
	de, ok := e.(event.QueueDepthChangedEvent)
	if !ok || de.Queue != m.scaler.Name() {
		return
	}
	if target := m.applying.Load(); target != 0 && int64(de.Concurrency) == target {
		return
	}

	decision := m.policy.Evaluate(actionqueue.Status{
		Pending:     de.Pending,
		Running:     de.Running,
		Concurrency: de.Concurrency,
		Paused:      de.Paused,
	})
	if decision.Action == ActionNone {
		return
	}

	previous := de.Concurrency
	target := decision.Target(previous)
	m.applying.Store(int64(target))
	err := m.scaler.UpdateConcurrency(target)
	m.applying.CompareAndSwap(int64(target), 0)
	if err != nil {
		m.logger.Warn("scaling decision rejected",
			"action", decision.Action.String(),
			"target", target,
			"error", err.Error(),
		)
		return
	}
	m.logger.Info("scaled queue",
		"action", decision.Action.String(),
		"from", previous,
		"to", target,
		"reason", decision.Reason,
	)

	m.bus.Publish(event.NewScalingDecisionEvent(
		m.scaler.Name(), decision.Action.String(), previous, target, decision.Reason,
	))

	m.mu.Lock()
	handlers := make([]func(Decision), len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()
	for _, h := range handlers {
		h(decision)
	}
}
