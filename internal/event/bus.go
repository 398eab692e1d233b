package event

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/panics"

	"github.com/Iron-Ham/actionqueue/internal/logging"
)

// Handler is a function that handles an event.
type Handler func(Event)

// wildcard is the subscription key for handlers that receive every event.
const wildcard = "*"

// subscription represents a registered event handler.
type subscription struct {
	id        string
	eventType string
	handler   Handler
}

// Bus is a simple synchronous pub-sub event bus.
// It allows components to communicate without direct dependencies.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string][]subscription // eventType -> subscriptions
	nextID        atomic.Uint64
	logger        *logging.Logger
}

// NewBus creates a new event bus. Handler panics are reported to logger;
// a nil logger discards them.
func NewBus(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Bus{
		subscriptions: make(map[string][]subscription),
		logger:        logger,
	}
}

// Subscribe registers a handler for a specific event type.
// Returns a subscription ID that can be used to unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := fmt.Sprintf("sub-%d", b.nextID.Add(1))
	b.subscriptions[eventType] = append(b.subscriptions[eventType], subscription{
		id:        id,
		eventType: eventType,
		handler:   handler,
	})
	return id
}

// SubscribeAll registers a handler for all event types.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe(wildcard, handler)
}

// Unsubscribe removes a subscription by ID.
// Returns true if the subscription was found and removed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscriptions {
		for i, sub := range subs {
			if sub.id != id {
				continue
			}
			remaining := make([]subscription, 0, len(subs)-1)
			remaining = append(remaining, subs[:i]...)
			remaining = append(remaining, subs[i+1:]...)
			if len(remaining) == 0 {
				delete(b.subscriptions, eventType)
			} else {
				b.subscriptions[eventType] = remaining
			}
			return true
		}
	}
	return false
}

// Publish dispatches an event to all registered handlers on the calling
// goroutine. Handlers subscribed to the event's type run first, then
// wildcard handlers, each group in registration order. A panicking handler
// is logged and skipped; delivery continues with the remaining handlers.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	specific := b.subscriptions[e.EventType()]
	wild := b.subscriptions[wildcard]
	handlers := make([]Handler, 0, len(specific)+len(wild))
	for _, sub := range specific {
		handlers = append(handlers, sub.handler)
	}
	for _, sub := range wild {
		handlers = append(handlers, sub.handler)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.safeCall(h, e)
	}
}

func (b *Bus) safeCall(handler Handler, e Event) {
	var pc panics.Catcher
	pc.Try(func() { handler(e) })
	if r := pc.Recovered(); r != nil {
		b.logger.Error("event handler panicked",
			"event_type", e.EventType(),
			"panic", fmt.Sprint(r.Value),
			"stack", string(r.Stack),
		)
	}
}

// Clear removes all subscriptions.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = make(map[string][]subscription)
}

// SubscriptionCount returns the total number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, subs := range b.subscriptions {
		count += len(subs)
	}
	return count
}
