package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/event"
)

// Participant is one connection's presence inside a room.
type Participant struct {
	ClientID string           `json:"clientId"`
	UserID   string           `json:"userId,omitempty"`
	Name     string           `json:"name,omitempty"`
	Color    string           `json:"color,omitempty"`
	Cursor   *event.Point     `json:"cursor,omitempty"`
	Active   *event.Selection `json:"active,omitempty"`
	JoinedAt time.Time        `json:"-"`
}

// Info carries the announced public fields of a participant.
type Info struct {
	UserID string
	Name   string
	Color  string
}

// Registry holds the thread-safe participant state for all rooms.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Participant

	now func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]*Participant),
		now:   time.Now,
	}
}

// Announce inserts or updates a participant, preserving any existing
// cursor and active selection. Returns the stored participant.
func (r *Registry) Announce(room, clientID string, info Info) Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]*Participant)
		r.rooms[room] = members
	}

	p, ok := members[clientID]
	if !ok {
		p = &Participant{
			ClientID: clientID,
			JoinedAt: r.now(),
		}
		members[clientID] = p
	}
	p.UserID = info.UserID
	p.Name = info.Name
	p.Color = info.Color

	return *p
}

// MoveCursor updates a participant's cursor. Returns false when no
// record exists; the caller still relays the raw event either way.
func (r *Registry) MoveCursor(room, clientID string, cursor event.Point) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participant(room, clientID)
	if !ok {
		return false
	}
	c := cursor
	p.Cursor = &c
	return true
}

// SetActive updates a participant's active selection. A nil selection
// clears it.
func (r *Registry) SetActive(room, clientID string, active *event.Selection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participant(room, clientID)
	if !ok {
		return false
	}
	if active == nil {
		p.Active = nil
	} else {
		a := *active
		p.Active = &a
	}
	return true
}

// Clear resets a participant's active selection.
func (r *Registry) Clear(room, clientID string) bool {
	return r.SetActive(room, clientID, nil)
}

// Leave removes a participant. Returns true only if a record existed,
// so callers can suppress duplicate "left" notices.
func (r *Registry) Leave(room, clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	if _, ok := members[clientID]; !ok {
		return false
	}

	delete(members, clientID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
	return true
}

// Snapshot returns the room's participants ordered by join time, ties
// broken by client id.
func (r *Registry) Snapshot(room string) []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	if len(members) == 0 {
		return nil
	}

	result := make([]Participant, 0, len(members))
	for _, p := range members {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].JoinedAt.Equal(result[j].JoinedAt) {
			return result[i].JoinedAt.Before(result[j].JoinedAt)
		}
		return result[i].ClientID < result[j].ClientID
	})
	return result
}

// Count returns the number of participants in a room.
func (r *Registry) Count(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// Rooms returns the number of rooms with at least one participant.
func (r *Registry) Rooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// participant looks up a record (caller must hold the lock).
func (r *Registry) participant(room, clientID string) (*Participant, bool) {
	members, ok := r.rooms[room]
	if !ok {
		return nil, false
	}
	p, ok := members[clientID]
	return p, ok
}
