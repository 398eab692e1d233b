// Package scaling adjusts an action queue's concurrency limit based on its
// depth.
//
// A queue built with an event bus publishes a depth event whenever its
// pending or running counts may have changed. A [Monitor] listens for those
// events, asks a [Policy] whether the limit should move, and applies the
// answer through [actionqueue.Queue.UpdateConcurrency].
//
// The core types are:
//
//   - [Policy]: Defines scaling rules (thresholds, cooldown, concurrency bounds)
//   - [Monitor]: Watches depth events on the event bus and applies the policy
//   - [Decision]: The output of policy evaluation: scale up, scale down, or hold
//
// # Usage
//
//	policy := scaling.NewPolicy(
//	    scaling.WithMinConcurrency(1),
//	    scaling.WithMaxConcurrency(8),
//	    scaling.WithScaleUpThreshold(2),
//	    scaling.WithScaleDownThreshold(1),
//	    scaling.WithCooldownPeriod(5 * time.Second),
//	)
//
//	monitor := scaling.NewMonitor(bus, policy, queue, logger)
//	monitor.OnDecision(func(d scaling.Decision) {
//	    log.Printf("Scaling: %s delta=%d reason=%s", d.Action, d.Delta, d.Reason)
//	})
//	go monitor.Start(ctx)
//	defer monitor.Stop()
//
// # Thread Safety
//
// All types in this package are safe for concurrent use.
package scaling
