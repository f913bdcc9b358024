package relay

import (
	"context"

	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/backend"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/event"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/hub"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/presence"
)

// handleJoin resolves the target document through the backend and, on
// success, assigns the server-derived room. Any resolution failure
// refuses the join silently; the connection stays usable for another
// attempt.
func (c *Coordinator) handleJoin(info hub.ClientInfo, env event.Envelope) {
	var req event.JoinRequest
	if err := env.Decode(&req); err != nil {
		c.logger.Warn("malformed join request", "client_id", info.ID, "error", err)
		return
	}
	if req.MindmapID == "" && req.ShareToken == "" {
		c.logger.Warn("join request names no document", "client_id", info.ID)
		return
	}

	var (
		doc     *backend.Document
		canEdit bool
		err     error
	)
	if req.ShareToken != "" {
		doc, err = c.docs.ResolveShare(context.Background(), req.ShareToken)
		if err == nil {
			canEdit = doc.CanEdit()
		}
	} else {
		doc, err = c.docs.ResolveDocument(context.Background(), req.MindmapID, info.Token)
		// Resolution through the bearer implies edit rights.
		canEdit = true
	}
	if err != nil {
		c.logger.Warn("join refused",
			"client_id", info.ID,
			"mindmap_id", req.MindmapID,
			"error", err,
		)
		return
	}

	room := RoomKey(doc.ID)

	// The connection may have dropped during the backend round trip.
	if !c.emitter.Join(info.ID, room) {
		return
	}

	prev := c.setSession(info.ID, &session{
		room:       room,
		docID:      doc.ID,
		shareToken: req.ShareToken,
		bearer:     info.Token,
		canEdit:    canEdit,
	})
	if prev != nil && prev.room != room {
		c.emitter.Leave(info.ID, prev.room)
		c.leaveNotify(info.ID, prev.room)
	}

	c.logger.Info("client joined room",
		"client_id", info.ID,
		"room", room,
		"can_edit", canEdit,
	)

	c.emitter.ToClient(info.ID, event.MindmapJoined, event.Joined{Room: room, CanEdit: canEdit})

	// Current collaborators, so the joiner renders them without
	// waiting for their next events. An empty room serializes as [].
	snapshot := c.presence.Snapshot(room)
	if snapshot == nil {
		snapshot = []presence.Participant{}
	}
	c.emitter.ToClient(info.ID, event.PresenceState, snapshot)
}

func (c *Coordinator) handleNodesChange(info hub.ClientInfo, env event.Envelope) {
	sess, ok := c.roomSession(info.ID, env.Room)
	if !ok {
		return
	}

	var payload event.NodesChange
	if err := env.Decode(&payload); err != nil {
		c.logPayloadError(info, env, err)
		return
	}

	c.emitter.ToRoom(sess.room, event.MindmapNodesChange, payload, info.ID)
	c.enqueue(sess.room, event.MindmapNodesChange, payload)

	if sess.canEdit {
		c.auditNodeChanges(info, sess, payload.Changes)
	}
}

func (c *Coordinator) handleEdgesChange(info hub.ClientInfo, env event.Envelope) {
	sess, ok := c.roomSession(info.ID, env.Room)
	if !ok {
		return
	}

	var payload event.EdgesChange
	if err := env.Decode(&payload); err != nil {
		c.logPayloadError(info, env, err)
		return
	}

	c.emitter.ToRoom(sess.room, event.MindmapEdgesChange, payload, info.ID)
	c.enqueue(sess.room, event.MindmapEdgesChange, payload)

	if sess.canEdit {
		c.auditEdgeChanges(info, sess, payload.Changes)
	}
}

func (c *Coordinator) handleNodesUpdate(info hub.ClientInfo, env event.Envelope) {
	sess, ok := c.roomSession(info.ID, env.Room)
	if !ok {
		return
	}

	var payload event.NodesUpdate
	if err := env.Decode(&payload); err != nil {
		c.logPayloadError(info, env, err)
		return
	}

	c.emitter.ToRoom(sess.room, event.MindmapNodesUpdate, payload, info.ID)
	c.enqueue(sess.room, event.MindmapNodesUpdate, payload)

	if sess.canEdit {
		c.submitHistory(info, sess, ActionNodeUpdate, payload, nil)
	}
}

func (c *Coordinator) handleEdgesUpdate(info hub.ClientInfo, env event.Envelope) {
	sess, ok := c.roomSession(info.ID, env.Room)
	if !ok {
		return
	}

	var payload event.EdgesUpdate
	if err := env.Decode(&payload); err != nil {
		c.logPayloadError(info, env, err)
		return
	}

	c.emitter.ToRoom(sess.room, event.MindmapEdgesUpdate, payload, info.ID)
	c.enqueue(sess.room, event.MindmapEdgesUpdate, payload)

	if sess.canEdit {
		c.submitHistory(info, sess, ActionEdgeUpdate, payload, nil)
	}
}

func (c *Coordinator) handleConnect(info hub.ClientInfo, env event.Envelope) {
	sess, ok := c.roomSession(info.ID, env.Room)
	if !ok {
		return
	}

	var payload event.Connection
	if err := env.Decode(&payload); err != nil {
		c.logPayloadError(info, env, err)
		return
	}

	c.emitter.ToRoom(sess.room, event.MindmapConnect, payload, info.ID)
	c.enqueue(sess.room, event.MindmapConnect, payload)

	if sess.canEdit {
		c.submitHistory(info, sess, ActionEdgeConnect, payload, nil)
	}
}

func (c *Coordinator) handleViewport(info hub.ClientInfo, env event.Envelope) {
	sess, ok := c.roomSession(info.ID, env.Room)
	if !ok {
		return
	}

	var payload event.Viewport
	if err := env.Decode(&payload); err != nil {
		c.logPayloadError(info, env, err)
		return
	}

	c.emitter.ToRoom(sess.room, event.MindmapViewport, payload, info.ID)
	c.enqueue(sess.room, event.MindmapViewport, payload)

	if sess.canEdit {
		c.submitHistory(info, sess, ActionViewport, payload, nil)
	}
}

// handleRestore relays a revert to a prior history entry. The client
// supplies the restored snapshot so the audit record carries it
// without another backend round trip.
func (c *Coordinator) handleRestore(info hub.ClientInfo, env event.Envelope) {
	sess, ok := c.roomSession(info.ID, env.Room)
	if !ok {
		return
	}

	var payload event.RestoreRequest
	if err := env.Decode(&payload); err != nil {
		c.logPayloadError(info, env, err)
		return
	}
	if payload.HistoryID == "" {
		c.logger.Warn("restore request names no history entry", "client_id", info.ID)
		return
	}

	c.emitter.ToRoom(sess.room, event.HistoryRestore, payload, info.ID)

	if sess.canEdit {
		c.submitHistory(info, sess, ActionRestore, restoreChange{HistoryID: payload.HistoryID}, payload.Snapshot)
	}
}

// handleCursorMove relays the cursor position stamped with its owner.
// The relay happens whether or not a presence record exists.
func (c *Coordinator) handleCursorMove(info hub.ClientInfo, env event.Envelope) {
	sess, ok := c.roomSession(info.ID, env.Room)
	if !ok {
		return
	}

	var payload event.Cursor
	if err := env.Decode(&payload); err != nil {
		c.logPayloadError(info, env, err)
		return
	}

	c.presence.MoveCursor(sess.room, info.ID, event.Point{X: payload.X, Y: payload.Y})

	notice := event.CursorNotice{ClientID: info.ID, X: payload.X, Y: payload.Y}
	c.emitter.ToRoom(sess.room, event.CursorMove, notice, info.ID)
	c.enqueue(sess.room, event.CursorMove, notice)
}

// handleAnnounce records the participant and shares its public fields
// with peers, never its cursor history.
func (c *Coordinator) handleAnnounce(info hub.ClientInfo, env event.Envelope) {
	sess, ok := c.roomSession(info.ID, env.Room)
	if !ok {
		return
	}

	var payload event.AnnounceInfo
	if err := env.Decode(&payload); err != nil {
		c.logPayloadError(info, env, err)
		return
	}

	c.presence.Announce(sess.room, info.ID, presence.Info{
		UserID: info.UserID,
		Name:   payload.Name,
		Color:  payload.Color,
	})

	c.emitter.ToRoom(sess.room, event.PresenceAnnounce, event.ParticipantInfo{
		ClientID: info.ID,
		UserID:   info.UserID,
		Name:     payload.Name,
		Color:    payload.Color,
	}, info.ID)
}

func (c *Coordinator) handleActive(info hub.ClientInfo, env event.Envelope) {
	sess, ok := c.roomSession(info.ID, env.Room)
	if !ok {
		return
	}

	var payload event.ActiveInfo
	if err := env.Decode(&payload); err != nil {
		c.logPayloadError(info, env, err)
		return
	}

	c.presence.SetActive(sess.room, info.ID, payload.Active)
	c.emitter.ToRoom(sess.room, event.PresenceActive, event.ActiveNotice{
		ClientID: info.ID,
		Active:   payload.Active,
	}, info.ID)
}

func (c *Coordinator) handleClear(info hub.ClientInfo, env event.Envelope) {
	sess, ok := c.roomSession(info.ID, env.Room)
	if !ok {
		return
	}

	c.presence.Clear(sess.room, info.ID)
	c.emitter.ToRoom(sess.room, event.PresenceClear, event.ClearNotice{ClientID: info.ID}, info.ID)
}

func (c *Coordinator) logPayloadError(info hub.ClientInfo, env event.Envelope, err error) {
	c.logger.Warn("malformed payload ignored",
		"event", env.Event,
		"client_id", info.ID,
		"error", err,
	)
}
