package election

import (
	"testing"

	"github.com/shiwa/gaze-error-injector/internal/gaze"
	"github.com/shiwa/gaze-error-injector/internal/geom"
	"github.com/shiwa/gaze-error-injector/internal/tracker"
)

type mockTracker struct {
	name   string
	status tracker.Status
	frame  gaze.RawGazeFrame
	hasNew bool
	up     geom.Vec3
	inits  int
	closed bool
}

func (m *mockTracker) Name() string           { return m.name }
func (m *mockTracker) Kind() tracker.Kind     { return tracker.KindSerial }
func (m *mockTracker) Initialize() bool       { m.inits++; return m.status != tracker.StatusUnavailable }
func (m *mockTracker) Status() tracker.Status { return m.status }
func (m *mockTracker) GetGazeData() (gaze.RawGazeFrame, bool) {
	return m.frame, m.hasNew
}
func (m *mockTracker) GetOriginTransform() gaze.Transform {
	return gaze.Transform{Up: m.up}
}
func (m *mockTracker) Close() error { m.closed = true; return nil }

func TestElection_Select(t *testing.T) {
	primary := &mockTracker{name: "p", status: tracker.StatusLive, frame: gaze.RawGazeFrame{Timestamp: 1}, hasNew: true, up: geom.Vec3{Y: 1}}
	secondary := &mockTracker{name: "s", status: tracker.StatusLive, frame: gaze.RawGazeFrame{Timestamp: 2}, hasNew: true, up: geom.Vec3{Z: 1}}
	e := New([]tracker.Tracker{primary}, []tracker.Tracker{secondary})

	var switches []string
	e.OnSwitch(func(from, to tracker.Tracker) {
		name := "nil"
		if to != nil {
			name = to.Name()
		}
		switches = append(switches, name)
	})

	t.Run("primary preferred", func(t *testing.T) {
		f, ok := e.GetGazeData()
		if !ok || f.Timestamp != 1 || e.Active() != primary {
			t.Errorf("got %v ok=%v active=%v", f.Timestamp, ok, e.Active())
		}
		if e.GetOriginTransform().Up != primary.up {
			t.Error("origin must come from active tracker")
		}
	})

	t.Run("fallback to secondary", func(t *testing.T) {
		primary.status = tracker.StatusStale
		f, ok := e.GetGazeData()
		if !ok || f.Timestamp != 2 || e.Active() != secondary {
			t.Errorf("got %v ok=%v", f.Timestamp, ok)
		}
	})

	t.Run("live tracker without new frame does not fall back", func(t *testing.T) {
		primary.status = tracker.StatusLive
		primary.hasNew = false
		if _, ok := e.GetGazeData(); ok {
			t.Error("expected no frame this tick")
		}
		if e.Active() != primary {
			t.Error("primary must stay active")
		}
	})

	t.Run("none available", func(t *testing.T) {
		primary.status = tracker.StatusUnavailable
		secondary.status = tracker.StatusUnavailable
		if _, ok := e.GetGazeData(); ok {
			t.Error("expected no frame")
		}
		if e.Active() != nil {
			t.Error("active must be nil")
		}
		if e.GetOriginTransform() != gaze.DefaultTransform() {
			t.Error("expected default transform without active tracker")
		}
	})

	want := []string{"p", "s", "p", "nil"}
	if len(switches) != len(want) {
		t.Fatalf("switches = %v, want %v", switches, want)
	}
	for i := range want {
		if switches[i] != want[i] {
			t.Errorf("switches = %v, want %v", switches, want)
		}
	}
}

func TestElection_InitializeClose(t *testing.T) {
	a := &mockTracker{status: tracker.StatusLive}
	b := &mockTracker{status: tracker.StatusUnavailable}
	e := New([]tracker.Tracker{a}, []tracker.Tracker{b})
	if n := e.Initialize(); n != 1 {
		t.Errorf("initialized = %d, want 1", n)
	}
	e.Close()
	if !a.closed || !b.closed {
		t.Error("all trackers must be closed")
	}
}
