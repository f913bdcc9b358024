// Package buffer implements the buffered broadcast pipeline.
//
// Incoming room events are enqueued into a capacity-bounded queue and
// periodically flushed: drained, grouped by (room, event), split into
// size-capped chunks, and re-emitted as batched messages. The queue is
// backed either by process memory or by a Redis list; Redis failures
// fall back to memory per item and downgrade the backend permanently
// after repeated consecutive failures.
package buffer
