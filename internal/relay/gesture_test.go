package relay

import (
	"testing"

	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/event"
)

func TestDragTracker_TrackEnd(t *testing.T) {
	d := newDragTracker()

	d.Track("mindmap:doc1", "n1", event.Point{X: 1, Y: 1})
	d.Track("mindmap:doc1", "n1", event.Point{X: 2, Y: 2})
	d.Track("mindmap:doc1", "n1", event.Point{X: 3, Y: 3})

	start, last, ok := d.End("mindmap:doc1", "n1")
	if !ok {
		t.Fatal("End = !ok for a tracked gesture")
	}
	if start != (event.Point{X: 1, Y: 1}) {
		t.Errorf("start = %+v, want the first frame", start)
	}
	if last != (event.Point{X: 3, Y: 3}) {
		t.Errorf("last = %+v, want the latest frame", last)
	}

	// The gesture is consumed.
	if _, _, ok := d.End("mindmap:doc1", "n1"); ok {
		t.Error("second End should find nothing")
	}
}

func TestDragTracker_EndWithoutTrack(t *testing.T) {
	d := newDragTracker()

	if _, _, ok := d.End("mindmap:doc1", "n1"); ok {
		t.Error("End = ok for an element never tracked")
	}
}

func TestDragTracker_IndependentElements(t *testing.T) {
	d := newDragTracker()

	d.Track("mindmap:doc1", "n1", event.Point{X: 1, Y: 0})
	d.Track("mindmap:doc1", "n2", event.Point{X: 2, Y: 0})
	d.Track("mindmap:doc2", "n1", event.Point{X: 3, Y: 0})

	if got := d.Len(); got != 3 {
		t.Fatalf("Len = %d, want 3", got)
	}

	start, _, ok := d.End("mindmap:doc2", "n1")
	if !ok || start.X != 3 {
		t.Errorf("wrong gesture consumed: start = %+v, ok = %v", start, ok)
	}
	if got := d.Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
}

func TestDragTracker_ForgetRoom(t *testing.T) {
	d := newDragTracker()

	d.Track("mindmap:doc1", "n1", event.Point{})
	d.Track("mindmap:doc1", "n2", event.Point{})
	d.Track("mindmap:doc2", "n1", event.Point{})

	d.ForgetRoom("mindmap:doc1")

	if got := d.Len(); got != 1 {
		t.Errorf("Len = %d after ForgetRoom, want 1", got)
	}
	if _, _, ok := d.End("mindmap:doc2", "n1"); !ok {
		t.Error("other rooms' gestures should survive ForgetRoom")
	}
}
