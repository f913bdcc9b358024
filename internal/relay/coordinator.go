package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/backend"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/event"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/hub"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/metrics"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/presence"
)

// Config controls audit-trail rate limiting.
type Config struct {
	// HistoryThrottle is the minimum interval between audit records for
	// continuous action kinds, per room and kind. Zero disables it.
	HistoryThrottle time.Duration

	// SnapshotThrottle bounds document snapshot fetches to one per room
	// per interval. Zero disables it.
	SnapshotThrottle time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HistoryThrottle:  2 * time.Second,
		SnapshotThrottle: time.Second,
	}
}

// Emitter is the transport surface the coordinator drives. *hub.Hub
// implements it.
type Emitter interface {
	Join(clientID, room string) bool
	Leave(clientID, room string)
	InRoom(clientID, room string) bool
	ToClient(clientID, event string, data any) bool
	ToRoom(room, event string, data any, except ...string)
}

// Enqueuer feeds the buffered broadcast pipeline. *buffer.Pipeline
// implements it.
type Enqueuer interface {
	Enqueue(room, event string, payload json.RawMessage)
}

// DocumentService resolves documents and appends audit entries.
// *backend.Client implements it.
type DocumentService interface {
	ResolveShare(ctx context.Context, shareToken string) (*backend.Document, error)
	ResolveDocument(ctx context.Context, id, bearer string) (*backend.Document, error)
	AppendHistory(ctx context.Context, id, bearer string, record backend.HistoryRecord) (json.RawMessage, error)
}

// session is what the coordinator remembers about a joined connection.
// A stored session is never mutated; a rejoin installs a replacement,
// so goroutines holding the pointer read it without locking.
type session struct {
	room       string
	docID      string
	shareToken string // set when the join came through a public share
	bearer     string // credential presented at connect
	canEdit    bool
}

// Coordinator implements hub.Handler: it dispatches every inbound
// event, owns the per-connection sessions, and drives presence, the
// flush pipeline, and the audit trail.
type Coordinator struct {
	cfg      Config
	logger   *slog.Logger
	emitter  Emitter
	docs     DocumentService
	pipeline Enqueuer
	presence *presence.Registry

	dispatch map[string]func(hub.ClientInfo, event.Envelope)

	mu       sync.Mutex
	sessions map[string]*session

	drags     *dragTracker
	throttles *throttle
	snapshots *throttle

	audits atomic.Int64
}

// Stats contains coordinator counters.
type Stats struct {
	Sessions int // connections currently joined to a room
	Gestures int // drag gestures in flight
	Audits   int // audit deliveries in flight
}

// New creates a Coordinator. The pipeline may be nil to disable
// buffered re-emission.
func New(cfg Config, emitter Emitter, docs DocumentService, pipeline Enqueuer, registry *presence.Registry, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = presence.NewRegistry()
	}

	c := &Coordinator{
		cfg:       cfg,
		logger:    logger,
		emitter:   emitter,
		docs:      docs,
		pipeline:  pipeline,
		presence:  registry,
		sessions:  make(map[string]*session),
		drags:     newDragTracker(),
		throttles: newThrottle(cfg.HistoryThrottle),
		snapshots: newThrottle(cfg.SnapshotThrottle),
	}
	c.dispatch = map[string]func(hub.ClientInfo, event.Envelope){
		event.MindmapJoin:        c.handleJoin,
		event.MindmapNodesChange: c.handleNodesChange,
		event.MindmapEdgesChange: c.handleEdgesChange,
		event.MindmapNodesUpdate: c.handleNodesUpdate,
		event.MindmapEdgesUpdate: c.handleEdgesUpdate,
		event.MindmapConnect:     c.handleConnect,
		event.MindmapViewport:    c.handleViewport,
		event.HistoryRestore:     c.handleRestore,
		event.CursorMove:         c.handleCursorMove,
		event.PresenceAnnounce:   c.handleAnnounce,
		event.PresenceActive:     c.handleActive,
		event.PresenceClear:      c.handleClear,
	}
	return c
}

// RoomKey derives the broadcast room for a document id.
func RoomKey(docID string) string {
	return "mindmap:" + docID
}

// HandleConnect satisfies hub.Handler. Sessions are created at join
// time, not connect time.
func (c *Coordinator) HandleConnect(info hub.ClientInfo) {}

// HandleEvent dispatches an inbound envelope to its handler.
func (c *Coordinator) HandleEvent(info hub.ClientInfo, env event.Envelope) {
	handler, ok := c.dispatch[env.Event]
	if !ok {
		c.logger.Warn("unknown event ignored", "event", env.Event, "client_id", info.ID)
		return
	}
	metrics.EventsRelayed.WithLabelValues(env.Event).Inc()
	handler(info, env)
}

// HandleDisconnect tears down the connection's session and presence.
func (c *Coordinator) HandleDisconnect(info hub.ClientInfo) {
	c.mu.Lock()
	sess := c.sessions[info.ID]
	delete(c.sessions, info.ID)
	c.mu.Unlock()

	if sess == nil {
		return
	}
	c.leaveNotify(info.ID, sess.room)
}

// Stats returns current coordinator counters.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	sessions := len(c.sessions)
	c.mu.Unlock()

	return Stats{
		Sessions: sessions,
		Gestures: c.drags.Len(),
		Audits:   int(c.audits.Load()),
	}
}

// roomSession returns the session when the client is joined to the
// room named on the envelope. Events for rooms the client never joined
// are ignored.
func (c *Coordinator) roomSession(clientID, room string) (*session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[clientID]
	if !ok || sess.room != room {
		return nil, false
	}
	return sess, true
}

// setSession stores a fresh session and returns the one it replaced.
func (c *Coordinator) setSession(clientID string, sess *session) *session {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.sessions[clientID]
	c.sessions[clientID] = sess
	return prev
}

// leaveNotify clears presence for a departed connection, tells the
// room when a record existed, and drops per-room tracker state once
// the room is empty.
func (c *Coordinator) leaveNotify(clientID, room string) {
	if c.presence.Leave(room, clientID) {
		c.emitter.ToRoom(room, event.PresenceLeft, event.LeftNotice{ClientID: clientID}, clientID)
	}
	if c.roomEmpty(room) {
		c.drags.ForgetRoom(room)
		c.throttles.ForgetRoom(room)
		c.snapshots.ForgetRoom(room)
	}
}

// roomEmpty reports whether no session remains in a room.
func (c *Coordinator) roomEmpty(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sess := range c.sessions {
		if sess.room == room {
			return false
		}
	}
	return true
}

// enqueue hands a payload to the flush pipeline for batched
// re-emission.
func (c *Coordinator) enqueue(room, eventName string, payload any) {
	if c.pipeline == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("marshal buffered payload failed", "event", eventName, "error", err)
		return
	}
	c.pipeline.Enqueue(room, eventName, data)
}
