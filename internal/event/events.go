package event

import "encoding/json"

// Inbound event names.
const (
	MindmapJoin        = "mindmap:join"
	MindmapNodesChange = "mindmap:nodes:change"
	MindmapEdgesChange = "mindmap:edges:change"
	MindmapNodesUpdate = "mindmap:nodes:update"
	MindmapEdgesUpdate = "mindmap:edges:update"
	MindmapConnect     = "mindmap:connect"
	MindmapViewport    = "mindmap:viewport"
	HistoryRestore     = "history:restore"
	CursorMove         = "cursor:move"
	PresenceAnnounce   = "presence:announce"
	PresenceActive     = "presence:active"
	PresenceClear      = "presence:clear"
)

// Outbound event names.
const (
	MindmapJoined   = "mindmap:joined"
	PresenceState   = "presence:state"
	PresenceLeft    = "presence:left"
	HistoryLog      = "history:log"
	HistoryLogError = "history:log:error"

	// BufferedData is the flush-cycle batch event used for items enqueued
	// without an explicit event name.
	BufferedData = "bufferedData"
)

// Envelope is the frame carried on the wire in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Room  string          `json:"room,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Decode unmarshals the envelope payload into the given variant.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}
