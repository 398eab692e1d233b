package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/actionqueue/internal/actionqueue"
	"github.com/Iron-Ham/actionqueue/internal/config"
	"github.com/Iron-Ham/actionqueue/internal/event"
	"github.com/Iron-Ham/actionqueue/internal/logging"
	"github.com/Iron-Ham/actionqueue/internal/scaling"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a queue of sample actions",
	Long: `Run a queue of sample actions and print each result as it settles.

The first action returns immediately; the rest each take --delay to finish.
With --watch, edits to queue.concurrency in the config file are applied to
the running queue. Press Ctrl-C to clear the queue.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	defaults := config.Default()
	flags := demoCmd.Flags()
	flags.IntP("concurrency", "n", defaults.Queue.Concurrency, "maximum number of actions running at once")
	flags.Int("actions", defaults.Demo.Actions, "number of delayed actions")
	flags.Duration("delay", defaults.Demo.Delay, "duration of each delayed action")
	flags.Bool("paused", defaults.Queue.StartPaused, "start paused and resume once everything is enqueued")
	flags.Bool("scale", defaults.Scaling.Enabled, "scale concurrency with queue depth")
	flags.Bool("watch", false, "apply config file changes to the running queue")

	_ = viper.BindPFlag("queue.concurrency", flags.Lookup("concurrency"))
	_ = viper.BindPFlag("demo.actions", flags.Lookup("actions"))
	_ = viper.BindPFlag("demo.delay", flags.Lookup("delay"))
	_ = viper.BindPFlag("queue.start_paused", flags.Lookup("paused"))
	_ = viper.BindPFlag("scaling.enabled", flags.Lookup("scale"))
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	watch, _ := cmd.Flags().GetBool("watch")
	return demo(ctx, cmd.OutOrStdout(), cfg, logger, watch)
}

// namedHandle pairs a handle with the label printed for it.
type namedHandle struct {
	name   string
	handle *actionqueue.Handle
}

// demo enqueues one immediate action followed by cfg.Demo.Actions delayed
// ones and prints each result as it settles. Cancelling ctx clears the
// queue.
func demo(ctx context.Context, w io.Writer, cfg *config.Config, logger *logging.Logger, watch bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runID := uuid.NewString()
	logger = logger.WithSession(runID)
	out := newPrinter(w)
	bus := event.NewBus(logger)

	q := actionqueue.New(
		actionqueue.WithName("demo"),
		actionqueue.WithConcurrency(cfg.Queue.Concurrency),
		actionqueue.WithStartPaused(cfg.Queue.StartPaused),
		actionqueue.WithLogger(logger),
		actionqueue.WithEventBus(bus),
	)

	out.title("actionqueue demo (run %s)", runID[:8])
	out.muted("concurrency %d, %d delayed actions of %v", q.Concurrency(), cfg.Demo.Actions, cfg.Demo.Delay)

	cancelIdle := q.SubscribeIdle(func(idle bool) {
		if idle {
			out.muted("queue idle")
		} else {
			out.muted("queue busy")
		}
	})
	defer cancelIdle()

	bus.Subscribe(event.TypeConcurrencyChanged, func(e event.Event) {
		if ce, ok := e.(event.ConcurrencyChangedEvent); ok {
			out.warn("concurrency %d -> %d", ce.Previous, ce.Current)
		}
	})

	if cfg.Scaling.Enabled {
		policy := scaling.NewPolicy(
			scaling.WithMinConcurrency(cfg.Scaling.MinConcurrency),
			scaling.WithMaxConcurrency(cfg.Scaling.MaxConcurrency),
			scaling.WithScaleUpThreshold(cfg.Scaling.ScaleUpThreshold),
			scaling.WithScaleDownThreshold(cfg.Scaling.ScaleDownThreshold),
			scaling.WithCooldownPeriod(cfg.Scaling.Cooldown),
		)
		monitor := scaling.NewMonitor(bus, policy, q, logger)
		monitor.OnDecision(func(d scaling.Decision) {
			out.muted("scaling: %s (%s)", d.Action, d.Reason)
		})
		go monitor.Start(ctx)
		defer monitor.Stop()
	}

	if watch {
		if file := viper.ConfigFileUsed(); file == "" {
			out.warn("no config file to watch")
		} else {
			out.muted("watching %s", file)
			config.Watch(logger, func(c *config.Config) {
				if err := q.UpdateConcurrency(c.Queue.Concurrency); err != nil {
					out.fail("config change rejected: %v", err)
				}
			})
		}
	}

	start := time.Now()
	handles := []namedHandle{{
		name:   "test",
		handle: q.Enqueue(func(context.Context) (any, error) { return "test", nil }),
	}}
	for i := 2; i <= cfg.Demo.Actions+1; i++ {
		name := fmt.Sprintf("Action %d", i)
		handles = append(handles, namedHandle{name: name, handle: q.Enqueue(delayed(name, cfg.Demo.Delay))})
	}

	// Clearing settles every handle, so the waits below always finish.
	stopClear := context.AfterFunc(ctx, q.Clear)
	defer stopClear()

	if q.Paused() {
		out.paused("queue paused with %d pending; resuming", q.QueueSize())
		q.Resume()
	}

	var g errgroup.Group
	for _, nh := range handles {
		g.Go(func() error {
			v, err := nh.handle.Result()
			switch {
			case err == nil:
				out.success("%v", v)
				return nil
			case errors.Is(err, actionqueue.ErrCleared):
				out.warn("%s cleared", nh.name)
				return nil
			default:
				out.fail("%s failed: %v", nh.name, err)
				return fmt.Errorf("%s: %w", nh.name, err)
			}
		})
	}
	err := g.Wait()

	if ctx.Err() != nil {
		out.warn("interrupted after %v", time.Since(start).Round(time.Millisecond))
		return err
	}
	out.title("done in %v", time.Since(start).Round(time.Millisecond))
	return err
}

// delayed returns an action that yields result after d, or fails early with
// its context's cause.
func delayed(result string, d time.Duration) actionqueue.Action {
	return func(ctx context.Context) (any, error) {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return result, nil
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		}
	}
}
