package relay

import (
	"context"
	"encoding/json"

	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/backend"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/event"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/hub"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/metrics"
)

// Audit action kinds.
const (
	ActionNodeAdd        = "node:add"
	ActionNodeDelete     = "node:delete"
	ActionNodeMove       = "node:move"
	ActionNodeUpdate     = "node:update"
	ActionNodeDimensions = "node:dimensions"
	ActionEdgeAdd        = "edge:add"
	ActionEdgeDelete     = "edge:delete"
	ActionEdgeConnect    = "edge:connect"
	ActionEdgeUpdate     = "edge:update"
	ActionViewport       = "viewport:update"
	ActionRestore        = "history:restore"
)

// throttledAction reports whether an action kind is subject to the
// audit interval. Discrete structural actions always log; unrecognized
// kinds default to throttled to bound backend load.
func throttledAction(action string) bool {
	switch action {
	case ActionNodeAdd, ActionNodeDelete, ActionNodeMove,
		ActionEdgeAdd, ActionEdgeDelete, ActionEdgeConnect,
		ActionRestore:
		return false
	}
	return true
}

// moveChange is the audit payload for a coalesced drag gesture.
type moveChange struct {
	ID   string      `json:"id"`
	From event.Point `json:"from"`
	To   event.Point `json:"to"`
}

// restoreChange is the audit payload for a history restore.
type restoreChange struct {
	HistoryID string `json:"historyId"`
}

// auditNodeChanges turns a batch of node changes into audit records.
// In-drag position frames feed the gesture tracker instead of logging;
// the gesture-end frame yields one net-displacement record. Selection
// changes never audit.
func (c *Coordinator) auditNodeChanges(info hub.ClientInfo, sess *session, changes []event.NodeChange) {
	for _, change := range changes {
		switch change.Type {
		case "add":
			c.submitHistory(info, sess, ActionNodeAdd, change, nil)
		case "remove":
			c.submitHistory(info, sess, ActionNodeDelete, change, nil)
		case "dimensions":
			c.submitHistory(info, sess, ActionNodeDimensions, change, nil)
		case "position":
			c.auditPosition(info, sess, change)
		}
	}
}

// auditPosition handles one position frame. Frames without a dragging
// flag are programmatic adjustments and relay without auditing.
func (c *Coordinator) auditPosition(info hub.ClientInfo, sess *session, change event.NodeChange) {
	if change.Dragging == nil {
		return
	}

	if *change.Dragging {
		if change.Position != nil {
			c.drags.Track(sess.room, change.ID, *change.Position)
		}
		return
	}

	start, last, ok := c.drags.End(sess.room, change.ID)
	if !ok {
		// No tracked frames means no displacement to report.
		return
	}
	final := last
	if change.Position != nil {
		final = *change.Position
	}
	if final == start {
		return
	}
	c.submitHistory(info, sess, ActionNodeMove, moveChange{ID: change.ID, From: start, To: final}, nil)
}

// auditEdgeChanges turns a batch of edge changes into audit records.
func (c *Coordinator) auditEdgeChanges(info hub.ClientInfo, sess *session, changes []event.EdgeChange) {
	for _, change := range changes {
		switch change.Type {
		case "add":
			c.submitHistory(info, sess, ActionEdgeAdd, change, nil)
		case "remove":
			c.submitHistory(info, sess, ActionEdgeDelete, change, nil)
		}
	}
}

// submitHistory builds one audit record and hands it off for delivery.
// Continuous action kinds pass the per-room throttle first. The backend
// round trips run on their own goroutine; dispatch never waits on the
// audit trail.
func (c *Coordinator) submitHistory(info hub.ClientInfo, sess *session, action string, changes any, snapshot json.RawMessage) {
	if throttledAction(action) && !c.throttles.Allow(sess.room, action) {
		return
	}

	record := backend.HistoryRecord{
		Action: action,
		Status: backend.HistoryStatusActive,
		Metadata: backend.Metadata{
			Address:   info.RemoteAddr,
			UserAgent: info.UserAgent,
			SessionID: info.ID,
		},
		Snapshot: snapshot,
	}
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			c.logger.Error("marshal audit changes failed", "action", action, "error", err)
			return
		}
		record.Changes = data
	}

	c.audits.Add(1)
	go func() {
		defer c.audits.Add(-1)
		c.shipHistory(info, sess, record)
	}()
}

// shipHistory fetches the snapshot when the record carries none, then
// appends the record. Success broadcasts the persisted entry to the
// room; failure sends a single error notice to the originator and
// never retries.
func (c *Coordinator) shipHistory(info hub.ClientInfo, sess *session, record backend.HistoryRecord) {
	if record.Snapshot == nil {
		record.Snapshot = c.fetchSnapshot(sess)
	}

	entry, err := c.docs.AppendHistory(context.Background(), sess.docID, sess.bearer, record)
	if err != nil {
		metrics.AuditRecords.WithLabelValues("error").Inc()
		c.logger.Warn("history append failed",
			"room", sess.room,
			"action", record.Action,
			"error", err,
		)
		c.emitter.ToClient(info.ID, event.HistoryLogError, event.LogErrorNotice{
			Message: "history logging failed",
		})
		return
	}
	metrics.AuditRecords.WithLabelValues("ok").Inc()

	// The originator may have left during the round trip; a late
	// result is dropped rather than broadcast.
	if len(entry) == 0 || !c.emitter.InRoom(info.ID, sess.room) {
		return
	}
	c.emitter.ToRoom(sess.room, event.HistoryLog, event.LogNotice{Entry: entry})
}

// fetchSnapshot returns the current document state for audit records,
// at most once per SnapshotThrottle per room. Between fetches and on
// failure the record ships without a snapshot.
func (c *Coordinator) fetchSnapshot(sess *session) json.RawMessage {
	if !c.snapshots.Allow(sess.room, "snapshot") {
		return nil
	}

	var (
		doc *backend.Document
		err error
	)
	if sess.shareToken != "" {
		doc, err = c.docs.ResolveShare(context.Background(), sess.shareToken)
	} else {
		doc, err = c.docs.ResolveDocument(context.Background(), sess.docID, sess.bearer)
	}
	if err != nil {
		c.logger.Warn("snapshot fetch failed", "room", sess.room, "error", err)
		return nil
	}

	snap, err := json.Marshal(struct {
		Nodes    json.RawMessage `json:"nodes,omitempty"`
		Edges    json.RawMessage `json:"edges,omitempty"`
		Viewport json.RawMessage `json:"viewport,omitempty"`
	}{doc.Nodes, doc.Edges, doc.Viewport})
	if err != nil {
		return nil
	}
	return snap
}
