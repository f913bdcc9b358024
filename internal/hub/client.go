package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/event"
)

// client is one upgraded WebSocket connection.
type client struct {
	hub  *Hub
	conn *websocket.Conn

	info ClientInfo
	send chan []byte

	closeOnce sync.Once
}

// close signals the write pump to shut the connection down. Buffered
// frames still drain before the close frame goes out.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump reads frames until the connection dies, decoding each into
// an envelope for the handler. It owns the unregistration path.
func (c *client) readPump() {
	defer c.hub.drop(c)

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.hub.logger.Debug("connection read failed",
					"client_id", c.info.ID,
					"error", err,
				)
			}
			return
		}

		var env event.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.hub.logger.Debug("malformed frame ignored",
				"client_id", c.info.ID,
				"error", err,
			)
			continue
		}
		if env.Event == "" {
			continue
		}

		if h := c.hub.handler(); h != nil {
			h.HandleEvent(c.info, env)
		}
	}
}

// writePump serializes all writes to the connection: queued frames and
// periodic pings.
func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
