package actionqueue

import (
	"context"

	"github.com/Iron-Ham/actionqueue/internal/event"
	"github.com/Iron-Ham/actionqueue/internal/logging"
)

// DefaultConcurrency is the concurrency of a queue built without WithConcurrency.
const DefaultConcurrency = 1

// Option configures a Queue.
type Option func(*config)

type config struct {
	name        string
	concurrency int
	paused      bool
	ctx         context.Context
	logger      *logging.Logger
	bus         *event.Bus
}

func defaultConfig() config {
	return config{
		name:        "default",
		concurrency: DefaultConcurrency,
		ctx:         context.Background(),
	}
}

// WithConcurrency sets the initial concurrency. Values below 1 are replaced
// by 1 when the queue is built, and a warning is logged.
func WithConcurrency(n int) Option {
	return func(c *config) {
		c.concurrency = n
	}
}

// WithName names the queue in logs and events.
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithStartPaused builds the queue in the paused state.
func WithStartPaused(paused bool) Option {
	return func(c *config) {
		c.paused = paused
	}
}

// WithContext sets the parent of every action's context.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// WithLogger sets the queue's logger. The default discards output.
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithEventBus publishes queue lifecycle events on bus.
func WithEventBus(bus *event.Bus) Option {
	return func(c *config) {
		c.bus = bus
	}
}
