package buffer

import (
	"encoding/json"
	"time"

	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/event"
)

// DefaultEvent is the event name used for batches whose items carry no
// explicit event.
const DefaultEvent = event.BufferedData

// Item is a single buffered payload bound for a room. Items with an
// empty room are re-emitted to every connection instead of one room.
type Item struct {
	Room       string          `json:"room,omitempty"`
	Event      string          `json:"event,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// Broadcaster delivers flushed batches to connected clients.
type Broadcaster interface {
	ToRoom(room, event string, data any, except ...string)
	ToAll(event string, data any)
}

// Config holds pipeline tuning parameters.
type Config struct {
	FlushInterval    time.Duration
	MaxBufferSize    int
	MaxChunkSize     int
	FailureThreshold int // consecutive Redis failures before downgrading to memory
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		FlushInterval:    500 * time.Millisecond,
		MaxBufferSize:    1000,
		MaxChunkSize:     100,
		FailureThreshold: 3,
	}
}

// Mode identifies the authoritative queue backend.
type Mode int32

const (
	// ModeMemory buffers items in process memory only.
	ModeMemory Mode = iota
	// ModeDurable buffers items in Redis, with memory as the failure path.
	ModeDurable
)

func (m Mode) String() string {
	if m == ModeDurable {
		return "durable"
	}
	return "memory"
}

// Stats contains pipeline counters.
type Stats struct {
	Mode        string
	Enqueued    int64
	Evicted     int64
	Flushed     int64
	Chunks      int64
	Fallbacks   int64
	FlushErrors int64
	QueueLen    int
}
