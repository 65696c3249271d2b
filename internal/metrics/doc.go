// Package metrics provides in-process metrics for the background-removal proxy.
//
// It uses a channel-based event pipeline to asynchronously collect:
//   - Total proxy requests received
//   - Response counts per outcome (success, timeout, upstream, ...)
//   - Client-facing HTTP status code distribution
//   - Upstream call latency with percentiles (P50, P95, P99)
//   - Upstream HTTP status code distribution
//
// The collector runs in a dedicated goroutine. Emit never blocks the request
// path: when the buffer is full the event is dropped.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:       metrics.EventUpstreamCompleted,
//		Duration:   850 * time.Millisecond,
//		StatusCode: 200,
//	})
//
//	snapshot := collector.Snapshot()
//
// On context cancellation the collector drains queued events before it stops.
package metrics
