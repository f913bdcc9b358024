package buffer

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
)

func testItem(event string, n int) Item {
	return Item{
		Room:    "mindmap:doc1",
		Event:   event,
		Payload: json.RawMessage(fmt.Sprintf(`{"n":%d}`, n)),
	}
}

func TestMemoryQueue_EnqueueDrain(t *testing.T) {
	q := NewMemoryQueue(10)

	for i := 0; i < 5; i++ {
		if evicted := q.Enqueue(testItem("cursor:move", i)); evicted {
			t.Fatalf("Enqueue(%d) evicted below capacity", i)
		}
	}

	if q.Len() != 5 {
		t.Errorf("Len() = %d, want 5", q.Len())
	}

	items := q.DrainAll()
	if len(items) != 5 {
		t.Fatalf("DrainAll() returned %d items, want 5", len(items))
	}
	for i, item := range items {
		want := fmt.Sprintf(`{"n":%d}`, i)
		if string(item.Payload) != want {
			t.Errorf("items[%d].Payload = %s, want %s", i, item.Payload, want)
		}
	}

	if q.Len() != 0 {
		t.Errorf("Len() = %d after drain, want 0", q.Len())
	}
}

func TestMemoryQueue_EvictsOldestAtCapacity(t *testing.T) {
	q := NewMemoryQueue(3)

	// Enqueue A, B, C, D into capacity 3; A must be evicted.
	labels := []string{"A", "B", "C", "D"}
	for i, label := range labels {
		evicted := q.Enqueue(Item{Event: label})
		wantEvict := i == 3
		if evicted != wantEvict {
			t.Errorf("Enqueue(%s) evicted = %v, want %v", label, evicted, wantEvict)
		}
	}

	if q.Len() != 3 {
		t.Errorf("Len() = %d, want 3", q.Len())
	}

	items := q.DrainAll()
	got := make([]string, len(items))
	for i, item := range items {
		got[i] = item.Event
	}
	want := []string{"B", "C", "D"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("drained[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestMemoryQueue_HoldsNewestAfterManyEvictions(t *testing.T) {
	q := NewMemoryQueue(4)

	// Push far past capacity; only the newest 4 survive, oldest-first.
	for i := 0; i < 100; i++ {
		q.Enqueue(testItem("mindmap:nodes:change", i))
	}

	items := q.DrainAll()
	if len(items) != 4 {
		t.Fatalf("DrainAll() returned %d items, want 4", len(items))
	}
	for i, item := range items {
		want := fmt.Sprintf(`{"n":%d}`, 96+i)
		if string(item.Payload) != want {
			t.Errorf("items[%d].Payload = %s, want %s", i, item.Payload, want)
		}
	}

	stats := q.Stats()
	if stats.TotalEnqueued != 100 {
		t.Errorf("TotalEnqueued = %d, want 100", stats.TotalEnqueued)
	}
	if stats.TotalEvicted != 96 {
		t.Errorf("TotalEvicted = %d, want 96", stats.TotalEvicted)
	}
	if stats.TotalDrained != 4 {
		t.Errorf("TotalDrained = %d, want 4", stats.TotalDrained)
	}
}

func TestMemoryQueue_ConsecutiveDrainsDoNotOverlap(t *testing.T) {
	q := NewMemoryQueue(10)

	q.Enqueue(testItem("cursor:move", 1))
	q.Enqueue(testItem("cursor:move", 2))

	first := q.DrainAll()
	if len(first) != 2 {
		t.Fatalf("first DrainAll() returned %d items, want 2", len(first))
	}

	second := q.DrainAll()
	if second != nil {
		t.Errorf("second DrainAll() returned %d items, want nil", len(second))
	}

	// New items after a drain are picked up by the next drain only.
	q.Enqueue(testItem("cursor:move", 3))
	third := q.DrainAll()
	if len(third) != 1 || string(third[0].Payload) != `{"n":3}` {
		t.Errorf("third DrainAll() = %v, want the single item enqueued after the drain", third)
	}
}

func TestMemoryQueue_ConcurrentEnqueue(t *testing.T) {
	q := NewMemoryQueue(1000)
	const workers = 8
	const perWorker = 100

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				q.Enqueue(testItem("cursor:move", w*perWorker+i))
			}
		}(w)
	}
	wg.Wait()

	items := q.DrainAll()
	if len(items) != workers*perWorker {
		t.Errorf("DrainAll() returned %d items, want %d", len(items), workers*perWorker)
	}

	// Every payload must appear exactly once.
	seen := make(map[string]bool)
	for _, item := range items {
		key := string(item.Payload)
		if seen[key] {
			t.Errorf("duplicate item %s", key)
		}
		seen[key] = true
	}
	if len(seen) != workers*perWorker {
		t.Errorf("unique items = %d, want %d", len(seen), workers*perWorker)
	}
}

func TestNewMemoryQueue_MinCapacity(t *testing.T) {
	q := NewMemoryQueue(0)
	if q.Stats().Capacity != 1 {
		t.Errorf("Capacity = %d, want 1 for capacity 0", q.Stats().Capacity)
	}

	q = NewMemoryQueue(-5)
	if q.Stats().Capacity != 1 {
		t.Errorf("Capacity = %d, want 1 for negative capacity", q.Stats().Capacity)
	}
}
