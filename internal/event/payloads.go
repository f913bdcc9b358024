package event

import "encoding/json"

// -----------------------------------------------------------------------------
// Shared primitives
// -----------------------------------------------------------------------------

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Selection identifies the element a participant is working on.
type Selection struct {
	Kind string `json:"kind"` // "node" or "edge"
	ID   string `json:"id"`
}

// -----------------------------------------------------------------------------
// Inbound payloads
// -----------------------------------------------------------------------------

// JoinRequest asks to enter the room of a mindmap, either by share token
// (public access) or by document id (bearer-authorized access).
type JoinRequest struct {
	MindmapID  string `json:"mindmapId,omitempty"`
	ShareToken string `json:"shareToken,omitempty"`
}

// NodeChange is a single incremental change to a node.
// Type is one of "position", "dimensions", "select", "add", "remove".
type NodeChange struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Position *Point          `json:"position,omitempty"`
	Dragging *bool           `json:"dragging,omitempty"`
	Item     json.RawMessage `json:"item,omitempty"` // full node for "add"
}

// EdgeChange is a single incremental change to an edge.
// Type is one of "select", "add", "remove".
type EdgeChange struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Item json.RawMessage `json:"item,omitempty"` // full edge for "add"
}

// NodesChange carries a batch of incremental node changes.
type NodesChange struct {
	Changes []NodeChange `json:"changes"`
}

// EdgesChange carries a batch of incremental edge changes.
type EdgesChange struct {
	Changes []EdgeChange `json:"changes"`
}

// Node is a full node snapshot used by bulk updates.
type Node struct {
	ID       string          `json:"id"`
	Position *Point          `json:"position,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Edge is a full edge snapshot used by bulk updates.
type Edge struct {
	ID     string          `json:"id"`
	Source string          `json:"source,omitempty"`
	Target string          `json:"target,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// NodesUpdate replaces node content wholesale (label edits, styling).
type NodesUpdate struct {
	Nodes []Node `json:"nodes"`
}

// EdgesUpdate replaces edge content wholesale.
type EdgesUpdate struct {
	Edges []Edge `json:"edges"`
}

// Connection describes a new edge drawn between two nodes.
type Connection struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Viewport is the shared canvas viewport.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// RestoreRequest reverts the document to a prior history entry. The client
// supplies the restored snapshot so the audit trail can record it without
// another backend round trip.
type RestoreRequest struct {
	HistoryID string          `json:"historyId"`
	Snapshot  json.RawMessage `json:"snapshot,omitempty"`
}

// Cursor is a participant's pointer position.
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AnnounceInfo is the self-description a participant publishes on joining.
type AnnounceInfo struct {
	Name  string `json:"name,omitempty"`
	Color string `json:"color,omitempty"`
}

// ActiveInfo marks the element a participant has selected; a nil Active
// clears the selection.
type ActiveInfo struct {
	Active *Selection `json:"active"`
}

// -----------------------------------------------------------------------------
// Outbound payloads
// -----------------------------------------------------------------------------

// Joined acknowledges a successful room join.
type Joined struct {
	Room    string `json:"room"`
	CanEdit bool   `json:"canEdit"`
}

// ParticipantInfo is the lightweight public view of a participant
// broadcast on announce (no cursor or selection state).
type ParticipantInfo struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId,omitempty"`
	Name     string `json:"name,omitempty"`
	Color    string `json:"color,omitempty"`
}

// CursorNotice is a relayed cursor position stamped with its owner.
type CursorNotice struct {
	ClientID string  `json:"clientId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// ActiveNotice is a relayed selection change stamped with its owner.
type ActiveNotice struct {
	ClientID string     `json:"clientId"`
	Active   *Selection `json:"active"`
}

// LeftNotice tells peers a participant disconnected or left the room.
type LeftNotice struct {
	ClientID string `json:"clientId"`
}

// ClearNotice tells peers a participant dropped its active selection.
type ClearNotice struct {
	ClientID string `json:"clientId"`
}

// LogNotice carries a freshly persisted history entry to room peers.
type LogNotice struct {
	Entry json.RawMessage `json:"entry"`
}

// LogErrorNotice reports a failed history submission to the originator.
type LogErrorNotice struct {
	Message string `json:"message"`
}
