package injector

import (
	"errors"
	"math"
	"testing"

	"github.com/shiwa/gaze-error-injector/internal/gaze"
	"github.com/shiwa/gaze-error-injector/internal/geom"
)

var (
	forward = geom.Vec3{Z: 1}
	up      = geom.Vec3{Y: 1}
)

// constSource всегда возвращает одно значение.
type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

// seqSource возвращает значения по кругу.
type seqSource struct {
	vals []float64
	i    int
}

func (s *seqSource) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func near(a, b geom.Vec3, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

func TestAccuracy_WorkedExample(t *testing.T) {
	got, err := Accuracy(forward, up, 0, 30)
	if err != nil {
		t.Fatal(err)
	}
	want := geom.Vec3{X: 0.5, Z: math.Sqrt(3) / 2}
	if !near(got, want, 1e-9) {
		t.Errorf("Accuracy((0,0,1), up, 0, 30) = %v, want %v", got, want)
	}
}

func TestAccuracy_Identity(t *testing.T) {
	dirs := []geom.Vec3{forward, {X: 0.3, Y: -0.2, Z: 0.93}, {X: 1}}
	ups := []geom.Vec3{up, {}, {X: 1}, {Z: 1}}
	for _, d := range dirs {
		for _, u := range ups {
			for _, deg := range []float64{0, 45, 123.4, 359.9} {
				got, err := Accuracy(d, u, deg, 0)
				if err != nil {
					t.Fatalf("Accuracy(%v, %v, %v, 0): %v", d, u, deg, err)
				}
				if got != d {
					t.Errorf("Accuracy(%v, %v, %v, 0) = %v, want exactly input", d, u, deg, got)
				}
			}
		}
	}
}

func TestAccuracy_DeviationMagnitude(t *testing.T) {
	for _, deg := range []float64{0, 30, 90, 180, 270, 333} {
		for _, mag := range []float64{0.5, 1, 5, 20} {
			got, err := Accuracy(forward, up, deg, mag)
			if err != nil {
				t.Fatal(err)
			}
			if a := geom.Angle(forward, got); math.Abs(a-mag) > 1e-6 {
				t.Errorf("direction %v magnitude %v: deviation %v", deg, mag, a)
			}
		}
	}
}

func TestAccuracy_Deterministic(t *testing.T) {
	a, _ := Accuracy(geom.Vec3{X: 0.1, Y: 0.2, Z: 0.97}, up, 77, 3)
	b, _ := Accuracy(geom.Vec3{X: 0.1, Y: 0.2, Z: 0.97}, up, 77, 3)
	if a != b {
		t.Errorf("repeated calls differ: %v vs %v", a, b)
	}
}

func TestAccuracy_DirectionQuadrants(t *testing.T) {
	// Ось ошибки = up, повёрнутый вокруг forward; 90° уводит взгляд вниз/вверх, а не вбок.
	got0, _ := Accuracy(forward, up, 0, 10)
	got90, _ := Accuracy(forward, up, 90, 10)
	if got0.X <= 0 || math.Abs(got0.Y) > 1e-12 {
		t.Errorf("direction 0 should deviate along X, got %v", got0)
	}
	if math.Abs(got90.X) > 1e-12 || got90.Y == 0 {
		t.Errorf("direction 90 should deviate along Y, got %v", got90)
	}
}

func TestAccuracy_DegenerateUp(t *testing.T) {
	_, err := Accuracy(forward, geom.Vec3{}, 10, 5)
	if !errors.Is(err, ErrDegenerate) {
		t.Errorf("zero up: expected ErrDegenerate, got %v", err)
	}
	_, err = Accuracy(geom.Vec3{}, up, 10, 5)
	if !errors.Is(err, ErrDegenerate) {
		t.Errorf("zero direction: expected ErrDegenerate, got %v", err)
	}
}

func TestUniformPrecision_ZeroMagnitude(t *testing.T) {
	src := NewSource(42)
	d := geom.Vec3{X: 0.2, Y: 0.1, Z: 0.97}
	for i := 0; i < 1000; i++ {
		got, err := UniformPrecision(d, up, 0, src)
		if err != nil {
			t.Fatal(err)
		}
		if got != d {
			t.Fatalf("draw %d: got %v, want exactly %v", i, got, d)
		}
	}
}

func TestUniformPrecision_WithinDisk(t *testing.T) {
	src := NewSource(7)
	const mag = 2.0
	var maxDev float64
	for i := 0; i < 5000; i++ {
		got, err := UniformPrecision(forward, up, mag, src)
		if err != nil {
			t.Fatal(err)
		}
		a := geom.Angle(forward, got)
		if a > mag+1e-9 {
			t.Fatalf("deviation %v exceeds magnitude %v", a, mag)
		}
		if a > maxDev {
			maxDev = a
		}
	}
	if maxDev < mag*0.9 {
		t.Errorf("max deviation %v: disk not covered", maxDev)
	}
}

func TestUniformPrecision_KnownDraw(t *testing.T) {
	// U1 = 1 → r = magnitude; U2 = 0 → θ = 0 → смещение вправо на полную амплитуду.
	src := &seqSource{vals: []float64{1, 0}}
	got, err := UniformPrecision(forward, up, 30, src)
	if err != nil {
		t.Fatal(err)
	}
	want := geom.Vec3{X: 0.5, Z: math.Sqrt(3) / 2}
	if !near(got, want, 1e-9) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestGaussian_Statistics(t *testing.T) {
	src := &countingSource{src: NewSource(2024)}
	const n = 20000
	var sum, sumSq float64
	maxPairs := 0
	for i := 0; i < n; i++ {
		before := src.draws
		g, err := Gaussian(src)
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		if pairs := (src.draws - before) / 2; pairs > maxPairs {
			maxPairs = pairs
		}
		sum += g
		sumSq += g * g
	}
	mean := sum / n
	sd := math.Sqrt(sumSq/n - mean*mean)
	if math.Abs(mean) > 0.05 {
		t.Errorf("mean = %v, want ≈ 0", mean)
	}
	if math.Abs(sd-1) > 0.05 {
		t.Errorf("sd = %v, want ≈ 1", sd)
	}
	// Принятие пары с вероятностью π/4: в среднем 4/π пар на значение.
	pairs := float64(src.draws) / 2 / n
	if math.Abs(pairs-4/math.Pi) > 0.05 {
		t.Errorf("mean pairs per draw = %v, expected ≈ %v", pairs, 4/math.Pi)
	}
	// Число пар на значение геометрическое: P(k пар) = (1-π/4)^(k-1)·π/4.
	// P(> 24 пар) < 1e-16 на значение, предел maxPolarRejections на результат не влияет.
	if maxPairs > 24 || maxPairs >= maxPolarRejections {
		t.Errorf("max pairs per draw = %d", maxPairs)
	}
}

func TestGaussian_RejectsOrigin(t *testing.T) {
	// 0.5 → v = 0, s = 0 отклоняется; затем (0.75, 0.5) → v1 = 0.5, v2 = 0 принимается.
	src := &seqSource{vals: []float64{0.5, 0.5, 0.75, 0.5}}
	g, err := Gaussian(src)
	if err != nil {
		t.Fatal(err)
	}
	s := 0.25
	want := 0.5 * math.Sqrt(-2*math.Log(s)/s)
	if math.Abs(g-want) > 1e-12 {
		t.Errorf("Gaussian = %v, want %v", g, want)
	}
	if src.i != 4 {
		t.Errorf("consumed %d values, want 4", src.i)
	}
}

func TestGaussian_StalledSource(t *testing.T) {
	for _, c := range []constSource{0.5, 0} {
		if _, err := Gaussian(c); !errors.Is(err, ErrSourceStalled) {
			t.Errorf("const %v: expected ErrSourceStalled, got %v", float64(c), err)
		}
	}
}

func TestGaussianPrecision_ZeroMagnitude(t *testing.T) {
	src := NewSource(99)
	for i := 0; i < 1000; i++ {
		got, err := GaussianPrecision(forward, up, 0, src)
		if err != nil {
			t.Fatal(err)
		}
		if got != forward {
			t.Fatalf("got %v, want exactly forward", got)
		}
	}
}

func TestGaussianPrecision_Spread(t *testing.T) {
	src := NewSource(5)
	const n, mag = 10000, 1.0
	var sumSq float64
	for i := 0; i < n; i++ {
		got, err := GaussianPrecision(forward, up, mag, src)
		if err != nil {
			t.Fatal(err)
		}
		a := geom.Angle(forward, got)
		sumSq += a * a
	}
	// Радиус двумерной нормали: E[r²] = 2σ².
	if ms := sumSq / n; math.Abs(ms-2*mag*mag) > 0.15 {
		t.Errorf("mean squared deviation = %v, want ≈ %v", ms, 2*mag*mag)
	}
}

func TestDataLoss_Boundaries(t *testing.T) {
	src := NewSource(1)
	for i := 0; i < 10000; i++ {
		if DataLoss(forward, 0, src).IsZero() {
			t.Fatal("p=0 dropped a sample")
		}
		if !DataLoss(forward, 1, src).IsZero() {
			t.Fatal("p=1 kept a sample")
		}
	}
	if DataLoss(forward, 0, constSource(0)).IsZero() {
		t.Error("p=0 must not drop even when u == 0")
	}
}

func TestDataLoss_Threshold(t *testing.T) {
	tests := []struct {
		u, p float64
		lost bool
	}{
		{0.3, 0.3, true},
		{0.30001, 0.3, false},
		{0.1, 0.5, true},
		{0.9, 0.5, false},
	}
	for _, tt := range tests {
		got := DataLoss(forward, tt.p, constSource(tt.u)).IsZero()
		if got != tt.lost {
			t.Errorf("u=%v p=%v: lost=%v, want %v", tt.u, tt.p, got, tt.lost)
		}
	}
}

func TestDataLoss_Rate(t *testing.T) {
	src := NewSource(3)
	const n = 20000
	lost := 0
	for i := 0; i < n; i++ {
		if DataLoss(forward, 0.25, src).IsZero() {
			lost++
		}
	}
	if r := float64(lost) / n; math.Abs(r-0.25) > 0.02 {
		t.Errorf("loss rate = %v, want ≈ 0.25", r)
	}
}

func TestTable(t *testing.T) {
	tbl := Default()
	for k := Kind(0); k < kindCount; k++ {
		if tbl[k] == nil {
			t.Errorf("%s missing from default table", k)
		}
	}
	got, err := tbl.Apply(KindAccuracy, forward, Params{Up: up, MagnitudeDeg: 30}, nil)
	if err != nil || !near(got, geom.Vec3{X: 0.5, Z: math.Sqrt(3) / 2}, 1e-9) {
		t.Errorf("Apply(accuracy) = %v, %v", got, err)
	}
	var empty Table
	if _, err := empty.Apply(KindAccuracy, forward, Params{}, nil); err == nil {
		t.Error("expected error from empty table")
	}
	if PrecisionKind(gaze.PrecisionGaussian) != KindPrecisionGaussian || PrecisionKind(gaze.PrecisionUniform) != KindPrecisionUniform {
		t.Error("PrecisionKind mapping wrong")
	}
}

func TestNewSource_Deterministic(t *testing.T) {
	a, b := NewSource(11), NewSource(11)
	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatal("same seed produced different streams")
		}
	}
}

// countingSource считает обращения к вложенному источнику.
type countingSource struct {
	src   Source
	draws int
}

func (c *countingSource) Float64() float64 {
	c.draws++
	return c.src.Float64()
}
