package scaling

import (
	"fmt"
	"sync"
	"time"

	"github.com/Iron-Ham/actionqueue/internal/actionqueue"
)

// Default policy values.
const (
	DefaultMinConcurrency     = 1
	DefaultMaxConcurrency     = 8
	DefaultScaleUpThreshold   = 2
	DefaultScaleDownThreshold = 1
	DefaultCooldownPeriod     = 5 * time.Second
)

// Option configures a Policy.
type Option func(*Policy)

// WithMinConcurrency sets the lowest limit the policy will scale down to.
func WithMinConcurrency(n int) Option {
	return func(p *Policy) { p.minConcurrency = n }
}

// WithMaxConcurrency sets the highest limit the policy will scale up to.
func WithMaxConcurrency(n int) Option {
	return func(p *Policy) { p.maxConcurrency = n }
}

// WithScaleUpThreshold sets the pending task count above which to scale up.
func WithScaleUpThreshold(n int) Option {
	return func(p *Policy) { p.scaleUpThreshold = n }
}

// WithScaleDownThreshold sets the running task count at or below which an
// empty queue scales down.
func WithScaleDownThreshold(n int) Option {
	return func(p *Policy) { p.scaleDownThreshold = n }
}

// WithCooldownPeriod sets the minimum time between scaling decisions.
func WithCooldownPeriod(d time.Duration) Option {
	return func(p *Policy) { p.cooldownPeriod = d }
}

// Policy defines the rules for adjusting a queue's concurrency limit.
// It is safe for concurrent use.
type Policy struct {
	mu                 sync.Mutex
	minConcurrency     int
	maxConcurrency     int
	scaleUpThreshold   int
	scaleDownThreshold int
	cooldownPeriod     time.Duration
	lastDecisionTime   time.Time
}

// NewPolicy creates a Policy with the given options.
// Unset options use defaults. Bounds below 1 are raised to 1, and a maximum
// below the minimum is raised to the minimum.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{
		minConcurrency:     DefaultMinConcurrency,
		maxConcurrency:     DefaultMaxConcurrency,
		scaleUpThreshold:   DefaultScaleUpThreshold,
		scaleDownThreshold: DefaultScaleDownThreshold,
		cooldownPeriod:     DefaultCooldownPeriod,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.minConcurrency = max(p.minConcurrency, 1)
	p.maxConcurrency = max(p.maxConcurrency, p.minConcurrency)
	return p
}

// Evaluate inspects a queue snapshot and returns a scaling decision for its
// concurrency limit. The cooldown period prevents rapid scaling thrash.
// Paused queues are never scaled.
func (p *Policy) Evaluate(status actionqueue.Status) Decision {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()

	if status.Paused {
		return Decision{Action: ActionNone, Reason: "queue paused"}
	}

	// Check cooldown
	if !p.lastDecisionTime.IsZero() && now.Sub(p.lastDecisionTime) < p.cooldownPeriod {
		return Decision{
			Action: ActionNone,
			Reason: "cooldown period active",
		}
	}

	current := status.Concurrency

	// Scale up: backlog beyond the threshold and room below the maximum
	if status.Pending > p.scaleUpThreshold && current < p.maxConcurrency {
		// Don't exceed the maximum
		delta := min(status.Pending, p.maxConcurrency-current)
		if delta > 0 {
			p.lastDecisionTime = now
			return Decision{
				Action: ActionScaleUp,
				Delta:  delta,
				Reason: fmt.Sprintf("%d pending tasks with %d running (threshold: %d)", status.Pending, status.Running, p.scaleUpThreshold),
			}
		}
	}

	// Scale down: no backlog and few running tasks
	if status.Pending == 0 && status.Running <= p.scaleDownThreshold && current > p.minConcurrency {
		// One step at a time to stay conservative
		p.lastDecisionTime = now
		return Decision{
			Action: ActionScaleDown,
			Delta:  -1,
			Reason: fmt.Sprintf("no pending tasks with %d running (threshold: %d)", status.Running, p.scaleDownThreshold),
		}
	}

	return Decision{
		Action: ActionNone,
		Reason: "no scaling needed",
	}
}
