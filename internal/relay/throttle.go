package relay

import (
	"sync"
	"time"
)

type throttleKey struct {
	room   string
	action string
}

// throttle enforces a minimum interval between emissions per
// (room, action) pair.
type throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[throttleKey]time.Time

	now func() time.Time
}

func newThrottle(interval time.Duration) *throttle {
	return &throttle{
		interval: interval,
		last:     make(map[throttleKey]time.Time),
		now:      time.Now,
	}
}

// Allow reports whether an emission may proceed, recording its time
// when it may. A zero interval admits everything.
func (t *throttle) Allow(room, action string) bool {
	if t.interval <= 0 {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := throttleKey{room: room, action: action}
	now := t.now()
	if last, ok := t.last[key]; ok && now.Sub(last) < t.interval {
		return false
	}
	t.last[key] = now
	return true
}

// ForgetRoom drops all state for a room.
func (t *throttle) ForgetRoom(room string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key := range t.last {
		if key.room == room {
			delete(t.last, key)
		}
	}
}
