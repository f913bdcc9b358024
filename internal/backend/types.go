package backend

import "encoding/json"

// Public access levels a shared document can carry.
const (
	AccessLevelView = "view"
	AccessLevelEdit = "edit"
)

// Document is the backend's representation of a mindmap.
type Document struct {
	ID                string          `json:"id"`
	PublicAccessLevel string          `json:"publicAccessLevel,omitempty"`
	Nodes             json.RawMessage `json:"nodes,omitempty"`
	Edges             json.RawMessage `json:"edges,omitempty"`
	Viewport          json.RawMessage `json:"viewport,omitempty"`
}

// CanEdit reports whether the public access level allows mutations.
// Documents resolved through an owner's bearer credential are editable
// regardless of this flag.
func (d *Document) CanEdit() bool {
	return d.PublicAccessLevel == AccessLevelEdit
}

// HistoryStatusActive is the status every relayed audit entry carries.
const HistoryStatusActive = "active"

// Metadata identifies the connection that produced an audit entry.
type Metadata struct {
	Address   string `json:"address,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	SessionID string `json:"sessionId"`
}

// HistoryRecord is one audit entry appended to a document's history.
type HistoryRecord struct {
	Action   string          `json:"action"`
	Changes  json.RawMessage `json:"changes,omitempty"`
	Snapshot json.RawMessage `json:"snapshot,omitempty"`
	Metadata Metadata        `json:"metadata"`
	Status   string          `json:"status"`
}
