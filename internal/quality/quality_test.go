package quality

import (
	"math"
	"testing"

	"github.com/shiwa/gaze-error-injector/internal/engine"
	"github.com/shiwa/gaze-error-injector/internal/gaze"
	"github.com/shiwa/gaze-error-injector/internal/geom"
	"github.com/shiwa/gaze-error-injector/internal/injector"
	"github.com/shiwa/gaze-error-injector/internal/pipeline"
)

var _ engine.Observer = (*Monitor)(nil)

func state(raw, errDir geom.Vec3, rawValid, errValid bool) gaze.ChannelErrorState {
	return gaze.ChannelErrorState{RawDirection: raw, RawValid: rawValid, ErrorDirection: errDir, ErrorValid: errValid}
}

func TestMonitor_Window(t *testing.T) {
	m := New()
	fwd := geom.Vec3{Z: 1}
	shifted, _ := geom.Rotate(fwd, geom.Vec3{Y: 1}, 2)
	for i := 0; i < 2*Window; i++ {
		f := gaze.GazeErrorFrame{
			Gaze:  state(fwd, shifted, true, true),
			Left:  state(fwd, geom.Zero, true, false),
			Right: state(fwd, fwd, false, false),
		}
		m.OnFrame(f)
	}
	r := m.Report()
	if r.Frames != 2*Window {
		t.Errorf("frames = %d", r.Frames)
	}
	if r.Gaze.Samples != Window {
		t.Errorf("окно не ограничено: %d", r.Gaze.Samples)
	}
	if math.Abs(r.Gaze.AccuracyDeg-2) > 1e-9 {
		t.Errorf("accuracy = %v, ожидали 2", r.Gaze.AccuracyDeg)
	}
	if r.Gaze.PrecisionRMSDeg > 1e-5 {
		t.Errorf("постоянное смещение не должно давать шум: %v", r.Gaze.PrecisionRMSDeg)
	}
	if r.Left.DataLossRatio != 1 || r.Left.AccuracyDeg != 0 {
		t.Errorf("left = %+v", r.Left)
	}
	if r.Right.Samples != 0 {
		t.Errorf("невалидные сырые сэмплы не учитываются: %+v", r.Right)
	}

	m.Reset()
	if r := m.Report(); r.Frames != 0 || r.Gaze.Samples != 0 {
		t.Errorf("после Reset: %+v", r)
	}
}

func TestMonitor_Jitter(t *testing.T) {
	m := New()
	fwd := geom.Vec3{Z: 1}
	up := geom.Vec3{Y: 1}
	a, _ := geom.Rotate(fwd, up, 1)
	b, _ := geom.Rotate(fwd, up, -1)
	for i := 0; i < 10; i++ {
		d := a
		if i%2 == 1 {
			d = b
		}
		m.OnFrame(gaze.GazeErrorFrame{Gaze: state(fwd, d, true, true)})
	}
	r := m.Report().Gaze
	if math.Abs(r.PrecisionRMSDeg-2) > 1e-9 {
		t.Errorf("RMS = %v, ожидали 2", r.PrecisionRMSDeg)
	}
	if math.Abs(r.AccuracyDeg-1) > 1e-9 {
		t.Errorf("accuracy = %v, ожидали 1", r.AccuracyDeg)
	}
}

func TestMonitor_WithEngine(t *testing.T) {
	settings := engine.Settings{
		Mode: gaze.ModeIndependent,
		Gaze: gaze.ChannelErrorSettings{AccuracyMagnitudeDeg: 1.5, DataLossProbability: 0.25},
	}
	st, err := engine.NewSettingsStore(settings)
	if err != nil {
		t.Fatal(err)
	}
	e := engine.New(pipeline.New(injector.NewSource(11)), st)
	m := New()
	if err := e.Subscribe(m); err != nil {
		t.Fatal(err)
	}
	src := fixedSource{frame: gaze.RawGazeFrame{
		Gaze: gaze.EyeSample{Direction: geom.Vec3{Z: 1}, Valid: true},
		Left: gaze.EyeSample{Direction: geom.Vec3{Z: 1}, Valid: true},
	}}
	for i := 0; i < Window; i++ {
		e.Tick(src)
	}
	r := m.Report()
	if math.Abs(r.Gaze.AccuracyDeg-1.5) > 1e-9 {
		t.Errorf("accuracy = %v", r.Gaze.AccuracyDeg)
	}
	if r.Gaze.DataLossRatio < 0.05 || r.Gaze.DataLossRatio > 0.5 {
		t.Errorf("loss ratio = %v", r.Gaze.DataLossRatio)
	}
	if r.Left.AccuracyDeg != 0 || r.Left.DataLossRatio != 0 {
		t.Errorf("left without error: %+v", r.Left)
	}
}

type fixedSource struct{ frame gaze.RawGazeFrame }

func (f fixedSource) GetGazeData() (gaze.RawGazeFrame, bool) { return f.frame, true }
func (f fixedSource) GetOriginTransform() gaze.Transform     { return gaze.DefaultTransform() }
