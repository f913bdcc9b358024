// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - WebSocket connection and room counts
//   - Relay event throughput by event type
//   - Broadcast buffer depth, evictions, and flush output
//   - Redis durable-queue fallbacks and downgrades
//   - History audit submission outcomes
package metrics
