// Package testutil provides testing utilities for actionqueue tests.
package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/actionqueue/internal/event"
)

// DefaultTimeout bounds how long helpers wait for asynchronous state.
const DefaultTimeout = 2 * time.Second

// WaitFor polls cond until it returns true, failing the test if it does not
// within timeout.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %v waiting for %s", timeout, msg)
		}
		time.Sleep(time.Millisecond)
	}
}

// Never fails the test if cond becomes true at any point during d.
func Never(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			t.Fatalf("unexpected: %s", msg)
		}
		time.Sleep(time.Millisecond)
	}
}

// Recv waits for a value on ch, failing the test after timeout.
func Recv[T any](t *testing.T, ch <-chan T, timeout time.Duration) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %v waiting for channel", timeout)
		var zero T
		return zero
	}
}

// Collector records every event published on a bus.
type Collector struct {
	bus *event.Bus
	id  string

	mu     sync.Mutex
	events []event.Event
}

// NewCollector subscribes to all events on bus. The subscription is removed
// when the test completes.
func NewCollector(t *testing.T, bus *event.Bus) *Collector {
	t.Helper()

	c := &Collector{bus: bus}
	c.id = bus.SubscribeAll(func(e event.Event) {
		c.mu.Lock()
		c.events = append(c.events, e)
		c.mu.Unlock()
	})
	t.Cleanup(func() { bus.Unsubscribe(c.id) })
	return c
}

// Events returns a copy of the recorded events in arrival order.
func (c *Collector) Events() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]event.Event, len(c.events))
	copy(out, c.events)
	return out
}

// OfType returns the recorded events with the given type.
func (c *Collector) OfType(eventType string) []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []event.Event
	for _, e := range c.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many events of the given type were recorded.
func (c *Collector) Count(eventType string) int {
	return len(c.OfType(eventType))
}

// WaitForCount waits until at least n events of eventType were recorded.
func (c *Collector) WaitForCount(t *testing.T, eventType string, n int) []event.Event {
	t.Helper()
	WaitFor(t, DefaultTimeout, func() bool { return c.Count(eventType) >= n }, eventType)
	return c.OfType(eventType)
}

// Reset discards the recorded events.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.events = nil
	c.mu.Unlock()
}
