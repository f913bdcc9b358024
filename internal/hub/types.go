package hub

import (
	"time"

	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/event"
)

// Config configures the WebSocket hub.
type Config struct {
	AllowedOrigins []string      // empty = any origin, "*" = explicit wildcard
	SendBuffer     int           // per-client outbound queue size
	WriteTimeout   time.Duration // write deadline for frames and pings
	PingInterval   time.Duration // how often to ping idle connections
	PongTimeout    time.Duration // read deadline; reset on every pong
	MaxMessageSize int64         // inbound frame size limit
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SendBuffer:     64,
		WriteTimeout:   10 * time.Second,
		PingInterval:   30 * time.Second,
		PongTimeout:    60 * time.Second,
		MaxMessageSize: 512 * 1024,
	}
}

// ClientInfo describes one connection to event handlers.
type ClientInfo struct {
	ID         string // connection-scoped id, assigned at upgrade
	UserID     string // verified subject, empty for anonymous sessions
	Token      string // raw bearer credential as presented
	RemoteAddr string
	UserAgent  string
}

// Handler receives lifecycle and event callbacks from the hub. Calls
// for one connection arrive sequentially; calls for different
// connections arrive concurrently.
type Handler interface {
	HandleConnect(client ClientInfo)
	HandleEvent(client ClientInfo, env event.Envelope)
	HandleDisconnect(client ClientInfo)
}

// Stats contains hub counters.
type Stats struct {
	Connections int
	Rooms       int
	SendDrops   int64
}
