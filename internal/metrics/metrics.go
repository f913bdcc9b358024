package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Connections tracks the number of live WebSocket connections.
	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "riverflow_connections",
		Help: "Current number of live WebSocket connections",
	})

	// Rooms tracks the number of rooms with at least one member.
	Rooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "riverflow_rooms",
		Help: "Current number of rooms with at least one member",
	})

	// EventsRelayed counts inbound events relayed to room members, by event type.
	EventsRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riverflow_events_relayed_total",
		Help: "Total events relayed to room members",
	}, []string{"event"})

	// SendDrops counts messages dropped because a client send queue was full.
	SendDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riverflow_send_drops_total",
		Help: "Messages dropped due to a full client send queue",
	})

	// ItemsEnqueued counts items accepted into the broadcast buffer.
	ItemsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riverflow_buffer_items_enqueued_total",
		Help: "Total items enqueued into the broadcast buffer",
	})

	// ItemsEvicted counts oldest items evicted when the buffer was full.
	ItemsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riverflow_buffer_items_evicted_total",
		Help: "Oldest items evicted because the broadcast buffer was full",
	})

	// ItemsFlushed counts items drained and emitted by flush cycles.
	ItemsFlushed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riverflow_buffer_items_flushed_total",
		Help: "Total items drained and emitted by flush cycles",
	})

	// ChunksEmitted counts bufferedData chunks broadcast to rooms.
	ChunksEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riverflow_buffer_chunks_emitted_total",
		Help: "Total bufferedData chunks broadcast to rooms",
	})

	// QueueDepth tracks the number of items waiting in the broadcast buffer.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "riverflow_buffer_queue_depth",
		Help: "Items currently waiting in the broadcast buffer",
	})

	// DurableFallbacks counts items written to the memory queue after a Redis failure.
	DurableFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riverflow_durable_fallbacks_total",
		Help: "Items written to the memory queue after a Redis failure",
	})

	// DurableDowngrades counts permanent switches from Redis to memory mode.
	DurableDowngrades = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riverflow_durable_downgrades_total",
		Help: "Permanent downgrades from Redis to the in-memory queue",
	})

	// AuditRecords counts history submissions to the backend, by outcome.
	AuditRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riverflow_audit_records_total",
		Help: "History audit submissions to the backend",
	}, []string{"status"})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
