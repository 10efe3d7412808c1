package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shiwa/gaze-error-injector/internal/engine"
	"github.com/shiwa/gaze-error-injector/internal/gaze"
	"github.com/shiwa/gaze-error-injector/internal/geom"
)

func tempRecorder(t *testing.T, path string) *Recorder {
	t.Helper()
	settings := engine.Settings{Mode: gaze.ModeIndependent, Left: gaze.ChannelErrorSettings{AccuracyMagnitudeDeg: 1}}
	r, err := Open(path, "camera", settings)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func waitWritten(t *testing.T, r *Recorder, n uint64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for r.Written() < n {
		if time.Now().After(deadline) {
			t.Fatalf("written = %d, want %d", r.Written(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func frame(seq uint64) gaze.GazeErrorFrame {
	left := gaze.ChannelErrorState{
		Timestamp:      float64(seq) / 120,
		Origin:         geom.Vec3{X: -0.032},
		RawDirection:   geom.Vec3{Z: 1},
		RawValid:       true,
		ErrorDirection: geom.Vec3{X: 0.017, Z: 0.99985},
		ErrorValid:     true,
		Settings: gaze.ChannelErrorSettings{
			AccuracyMagnitudeDeg:  1,
			PrecisionMode:         gaze.PrecisionGaussian,
			PrecisionMagnitudeDeg: 0.2,
			DataLossProbability:   0.05,
		},
	}
	return gaze.GazeErrorFrame{
		Seq:   seq,
		Mode:  gaze.ModeIndependent,
		Gaze:  gaze.Identity(gaze.EyeSample{Direction: geom.Vec3{Z: 1}, Valid: true}),
		Left:  left,
		Right: gaze.ChannelErrorState{RawDirection: geom.Vec3{Z: 1}, RawValid: true, ErrorDirection: geom.Zero},
	}
}

func TestRecorder_WriteAndRead(t *testing.T) {
	r := tempRecorder(t, filepath.Join(t.TempDir(), "gaze.db"))
	if r.SessionID() == "" {
		t.Fatal("expected session id")
	}
	for i := uint64(1); i <= 10; i++ {
		r.OnFrame(frame(i))
	}
	waitWritten(t, r, 10)

	rows, err := r.Frames(r.SessionID(), 0)
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	if len(rows) != 30 {
		t.Fatalf("rows = %d, want 30", len(rows))
	}
	if rows[0].Channel != "gaze" || rows[1].Channel != "left" || rows[2].Channel != "right" {
		t.Errorf("channel order: %s %s %s", rows[0].Channel, rows[1].Channel, rows[2].Channel)
	}
	want := frame(1).Left
	if got := rows[1].State; got != want {
		t.Errorf("left row:\n got %+v\nwant %+v", got, want)
	}
	if rows[2].State.ErrorValid || !rows[2].State.ErrorDirection.IsZero() {
		t.Errorf("lost right channel not preserved: %+v", rows[2].State)
	}
	if rows[29].Seq != 10 || rows[29].Mode != "independent" {
		t.Errorf("last row: seq=%d mode=%s", rows[29].Seq, rows[29].Mode)
	}

	limited, err := r.Frames(r.SessionID(), 4)
	if err != nil || len(limited) != 4 {
		t.Errorf("limit: %d rows, err=%v", len(limited), err)
	}
}

func TestRecorder_Sessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gaze.db")
	first := tempRecorder(t, path)
	for i := uint64(1); i <= 3; i++ {
		first.OnFrame(frame(i))
	}
	waitWritten(t, first, 3)
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second := tempRecorder(t, path)
	sessions, err := second.Sessions()
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}
	byID := map[string]Session{}
	for _, s := range sessions {
		byID[s.ID] = s
	}
	if s := byID[first.SessionID()]; s.Frames != 3 || s.Tracker != "camera" {
		t.Errorf("first session: %+v", s)
	}
	if s := byID[second.SessionID()]; s.Frames != 0 {
		t.Errorf("second session: %+v", s)
	}
	rows, err := second.Frames(first.SessionID(), 0)
	if err != nil || len(rows) != 9 {
		t.Errorf("rows of closed session: %d, err=%v", len(rows), err)
	}
}

func TestRecorder_CloseIdempotent(t *testing.T) {
	r := tempRecorder(t, filepath.Join(t.TempDir(), "gaze.db"))
	r.OnFrame(frame(1))
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if r.Written() != 1 {
		t.Errorf("Close must flush queue, written = %d", r.Written())
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

var _ engine.Observer = (*Recorder)(nil)
