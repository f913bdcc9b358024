package relay

import (
	"sync"

	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/event"
)

type dragKey struct {
	room string
	id   string
}

// dragState is one element's gesture in flight.
type dragState struct {
	start event.Point
	last  event.Point
}

// dragTracker coalesces continuous position frames into one net
// displacement per gesture. A gesture starts on the first in-drag
// position frame for an element and ends when the dragging flag drops.
type dragTracker struct {
	mu     sync.Mutex
	active map[dragKey]*dragState
}

func newDragTracker() *dragTracker {
	return &dragTracker{active: make(map[dragKey]*dragState)}
}

// Track records an in-progress frame, opening the gesture on first
// sight of the element.
func (d *dragTracker) Track(room, id string, pos event.Point) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := dragKey{room: room, id: id}
	if s, ok := d.active[key]; ok {
		s.last = pos
		return
	}
	d.active[key] = &dragState{start: pos, last: pos}
}

// End consumes the gesture and returns its start and last tracked
// positions. ok is false when no frames were tracked, in which case
// there is no displacement to report.
func (d *dragTracker) End(room, id string) (start, last event.Point, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := dragKey{room: room, id: id}
	s, found := d.active[key]
	if !found {
		return event.Point{}, event.Point{}, false
	}
	delete(d.active, key)
	return s.start, s.last, true
}

// ForgetRoom abandons any gestures in flight for a room.
func (d *dragTracker) ForgetRoom(room string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key := range d.active {
		if key.room == room {
			delete(d.active, key)
		}
	}
}

// Len reports the number of gestures in flight.
func (d *dragTracker) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.active)
}
