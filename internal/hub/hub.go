package hub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/auth"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/event"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/metrics"
)

// Hub owns all live connections and their room membership.
type Hub struct {
	cfg      Config
	logger   *slog.Logger
	verifier *auth.Verifier

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
	rooms   map[string]map[string]*client
	closed  bool

	handlerMu sync.RWMutex
	h         Handler

	sendDrops atomic.Int64
}

// New creates a Hub. The verifier may be nil when no signing secret is
// configured.
func New(cfg Config, verifier *auth.Verifier, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if verifier == nil {
		verifier = auth.NewVerifier("")
	}
	def := DefaultConfig()
	if cfg.SendBuffer < 1 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = def.PongTimeout
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}

	h := &Hub{
		cfg:      cfg,
		logger:   logger,
		verifier: verifier,
		clients:  make(map[string]*client),
		rooms:    make(map[string]map[string]*client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// SetHandler registers the event handler. Must be called before the
// hub starts accepting connections.
func (h *Hub) SetHandler(handler Handler) {
	h.handlerMu.Lock()
	h.h = handler
	h.handlerMu.Unlock()
}

func (h *Hub) handler() Handler {
	h.handlerMu.RLock()
	defer h.handlerMu.RUnlock()
	return h.h
}

// ServeHTTP upgrades the request and runs the connection until it
// drops. Credential verification is soft: a bad token degrades the
// session to anonymous instead of rejecting the upgrade.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	info := ClientInfo{
		ID:         uuid.NewString(),
		Token:      auth.TokenFromRequest(r),
		RemoteAddr: r.RemoteAddr,
		UserAgent:  r.UserAgent(),
	}
	if info.Token != "" && h.verifier.Enabled() {
		subject, err := h.verifier.Verify(info.Token)
		if err != nil {
			h.logger.Debug("credential rejected, session stays anonymous",
				"client_id", info.ID,
				"error", err,
			)
		} else {
			info.UserID = subject
		}
	}

	c := &client{
		hub:  h,
		conn: conn,
		info: info,
		send: make(chan []byte, h.cfg.SendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[info.ID] = c
	n := len(h.clients)
	h.mu.Unlock()

	metrics.Connections.Set(float64(n))
	h.logger.Info("client connected",
		"client_id", info.ID,
		"user_id", info.UserID,
		"remote", info.RemoteAddr,
	)

	go c.writePump()

	if handler := h.handler(); handler != nil {
		handler.HandleConnect(info)
	}

	// Serve the read side on this goroutine; returns on disconnect.
	c.readPump()
}

// Join adds a client to a room. Returns false when the client is gone.
func (h *Hub) Join(clientID, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[clientID]
	if !ok {
		return false
	}

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*client)
		h.rooms[room] = members
	}
	members[clientID] = c
	metrics.Rooms.Set(float64(len(h.rooms)))
	return true
}

// Leave removes a client from a room.
func (h *Hub) Leave(clientID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, clientID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
	metrics.Rooms.Set(float64(len(h.rooms)))
}

// ToClient sends an event to a single client. Returns false when the
// client is gone.
func (h *Hub) ToClient(clientID, eventName string, data any) bool {
	frame, ok := h.marshalEnvelope("", eventName, data)
	if !ok {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[clientID]
	if !ok {
		return false
	}
	h.sendLocked(c, frame)
	return true
}

// ToRoom sends an event to every member of a room except the listed
// client ids.
func (h *Hub) ToRoom(room, eventName string, data any, except ...string) {
	frame, ok := h.marshalEnvelope(room, eventName, data)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, c := range h.rooms[room] {
		if excluded(except, id) {
			continue
		}
		h.sendLocked(c, frame)
	}
}

// ToAll sends an event to every connected client.
func (h *Hub) ToAll(eventName string, data any) {
	frame, ok := h.marshalEnvelope("", eventName, data)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		h.sendLocked(c, frame)
	}
}

// InRoom reports whether a client is currently a member of a room.
func (h *Hub) InRoom(clientID, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.rooms[room][clientID]
	return ok
}

// Stats returns current hub counters.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return Stats{
		Connections: len(h.clients),
		Rooms:       len(h.rooms),
		SendDrops:   h.sendDrops.Load(),
	}
}

// Close disconnects every client and rejects future upgrades. Clients
// leave the maps before their channels close, so in-flight broadcasts
// cannot hit a closed channel; handler disconnect callbacks do not
// fire for connections closed this way.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for id, c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, id)
	}
	for room := range h.rooms {
		delete(h.rooms, room)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	metrics.Connections.Set(0)
	metrics.Rooms.Set(0)
}

// drop unregisters a client after its read pump exits. Removal from
// the maps happens before the send channel closes, so concurrent
// broadcasts can never write to a closed channel.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.info.ID]; !ok {
		h.mu.Unlock()
		c.close()
		return
	}
	delete(h.clients, c.info.ID)
	for room, members := range h.rooms {
		if _, ok := members[c.info.ID]; ok {
			delete(members, c.info.ID)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	n := len(h.clients)
	rooms := len(h.rooms)
	h.mu.Unlock()

	c.close()

	metrics.Connections.Set(float64(n))
	metrics.Rooms.Set(float64(rooms))
	h.logger.Info("client disconnected", "client_id", c.info.ID)

	if handler := h.handler(); handler != nil {
		handler.HandleDisconnect(c.info)
	}
}

// sendLocked enqueues a frame on a client's send queue, dropping the
// frame when the queue is full (caller holds h.mu).
func (h *Hub) sendLocked(c *client, frame []byte) {
	select {
	case c.send <- frame:
	default:
		h.sendDrops.Add(1)
		metrics.SendDrops.Inc()
		h.logger.Warn("send queue full, dropping message", "client_id", c.info.ID)
	}
}

// marshalEnvelope builds the wire frame once so every recipient shares
// the same bytes.
func (h *Hub) marshalEnvelope(room, eventName string, data any) ([]byte, bool) {
	env := event.Envelope{Event: eventName, Room: room}
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			h.logger.Error("marshal payload failed", "event", eventName, "error", err)
			return nil, false
		}
		env.Data = payload
	}

	frame, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("marshal envelope failed", "event", eventName, "error", err)
		return nil, false
	}
	return frame, true
}

// checkOrigin applies the configured allow-list. An empty list admits
// any origin.
func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients send no Origin header.
		return true
	}

	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func excluded(except []string, id string) bool {
	for _, e := range except {
		if e == id {
			return true
		}
	}
	return false
}
