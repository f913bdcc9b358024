package buffer

import (
	"sync"
)

// MemoryQueue is a thread-safe bounded FIFO queue of broadcast items.
// When an enqueue would exceed capacity, the single oldest item is
// evicted first, so the queue holds at most the most recent capacity
// items.
type MemoryQueue struct {
	mu       sync.Mutex
	buf      []Item
	head     int // read position
	tail     int // write position
	count    int
	capacity int

	// Stats
	totalEnqueued int64
	totalEvicted  int64
	totalDrained  int64
}

// NewMemoryQueue creates a queue holding at most capacity items.
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryQueue{
		buf:      make([]Item, capacity),
		capacity: capacity,
	}
}

// Enqueue appends an item, evicting the oldest one first when the
// queue is full. Returns true if an eviction occurred.
func (q *MemoryQueue) Enqueue(item Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	evicted := false
	if q.count == q.capacity {
		q.buf[q.head] = Item{}
		q.head = (q.head + 1) % q.capacity
		q.count--
		q.totalEvicted++
		evicted = true
	}

	q.buf[q.tail] = item
	q.tail = (q.tail + 1) % q.capacity
	q.count++
	q.totalEnqueued++
	return evicted
}

// DrainAll removes and returns every queued item in FIFO order,
// leaving the queue empty. Returns nil when there is nothing queued.
func (q *MemoryQueue) DrainAll() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil
	}

	result := make([]Item, q.count)
	for i := range result {
		result[i] = q.buf[q.head]
		q.buf[q.head] = Item{} // Clear reference for GC
		q.head = (q.head + 1) % q.capacity
		q.count--
		q.totalDrained++
	}

	return result
}

// Len returns the current number of queued items.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Stats returns queue counters.
func (q *MemoryQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		Count:         q.count,
		Capacity:      q.capacity,
		TotalEnqueued: q.totalEnqueued,
		TotalEvicted:  q.totalEvicted,
		TotalDrained:  q.totalDrained,
	}
}

// QueueStats contains memory queue counters.
type QueueStats struct {
	Count         int
	Capacity      int
	TotalEnqueued int64
	TotalEvicted  int64
	TotalDrained  int64
}
