package gaze

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/shiwa/gaze-error-injector/internal/geom"
)

func TestChannelErrorSettings_Validate(t *testing.T) {
	ok := ChannelErrorSettings{
		AccuracyDirectionDeg:  45,
		AccuracyMagnitudeDeg:  1.5,
		PrecisionMode:         PrecisionGaussian,
		PrecisionMagnitudeDeg: 0.5,
		DataLossProbability:   0.1,
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ChannelErrorSettings)
	}{
		{"direction 360", func(s *ChannelErrorSettings) { s.AccuracyDirectionDeg = 360 }},
		{"direction negative", func(s *ChannelErrorSettings) { s.AccuracyDirectionDeg = -1 }},
		{"accuracy negative", func(s *ChannelErrorSettings) { s.AccuracyMagnitudeDeg = -0.1 }},
		{"precision negative", func(s *ChannelErrorSettings) { s.PrecisionMagnitudeDeg = -2 }},
		{"probability above 1", func(s *ChannelErrorSettings) { s.DataLossProbability = 1.01 }},
		{"probability below 0", func(s *ChannelErrorSettings) { s.DataLossProbability = -0.01 }},
		{"NaN magnitude", func(s *ChannelErrorSettings) { s.AccuracyMagnitudeDeg = math.NaN() }},
		{"unknown precision mode", func(s *ChannelErrorSettings) { s.PrecisionMode = PrecisionMode(7) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ok
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("expected ErrInvalidSettings, got %v", err)
			}
		})
	}
}

func TestChannelErrorSettings_ValidateFirstNonFinite(t *testing.T) {
	s := ChannelErrorSettings{
		AccuracyMagnitudeDeg:  math.Inf(1),
		PrecisionMagnitudeDeg: math.NaN(),
		DataLossProbability:   math.NaN(),
	}
	for i := 0; i < 20; i++ {
		err := s.Validate()
		if err == nil || !strings.Contains(err.Error(), "accuracy_magnitude_deg") {
			t.Fatalf("run %d: error must name the first non-finite field: %v", i, err)
		}
	}
}

func TestChannelErrorSettings_Normalize(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0}, {360, 0}, {-90, 270}, {725, 5}, {359.5, 359.5},
	}
	for _, tt := range tests {
		got := ChannelErrorSettings{AccuracyDirectionDeg: tt.in}.Normalize().AccuracyDirectionDeg
		if got != tt.want {
			t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseModes(t *testing.T) {
	for in, want := range map[string]ErrorMode{"none": ModeNone, "Independent": ModeIndependent, " dependent ": ModeDependent, "": ModeNone} {
		got, err := ParseErrorMode(in)
		if err != nil || got != want {
			t.Errorf("ParseErrorMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseErrorMode("both"); err == nil {
		t.Error("expected error for unknown mode")
	}
	for in, want := range map[string]PrecisionMode{"uniform": PrecisionUniform, "GAUSSIAN": PrecisionGaussian} {
		got, err := ParsePrecisionMode(in)
		if err != nil || got != want {
			t.Errorf("ParsePrecisionMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	var m ErrorMode
	if err := m.UnmarshalText([]byte("dependent")); err != nil || m != ModeDependent {
		t.Errorf("UnmarshalText: %v %v", m, err)
	}
	if b, _ := ModeIndependent.MarshalText(); string(b) != "independent" {
		t.Errorf("MarshalText = %s", b)
	}
}

func TestIdentityAndLost(t *testing.T) {
	s := EyeSample{Timestamp: 1.5, Origin: geom.Vec3{X: 0.03}, Direction: geom.Vec3{Z: 1}, Valid: true}
	st := Identity(s)
	if st.ErrorDirection != s.Direction || !st.ErrorValid || st.Timestamp != 1.5 || st.Origin != s.Origin {
		t.Errorf("Identity = %+v", st)
	}
	if st.Lost() {
		t.Error("identity state must not be lost")
	}
	st.ErrorDirection, st.ErrorValid = geom.Zero, false
	if !st.Lost() {
		t.Error("zero direction on valid raw sample should be lost")
	}
}

func TestGazeErrorFrame_Ray(t *testing.T) {
	f := GazeErrorFrame{
		Left: ChannelErrorState{
			Origin:         geom.Vec3{X: -0.5},
			RawDirection:   geom.Vec3{Z: 1},
			ErrorDirection: geom.Vec3{X: 2},
		},
	}
	r := f.Ray(EyeLeft, DataOriginal)
	if r.Direction != (geom.Vec3{Z: 1}) {
		t.Errorf("original ray direction = %v", r.Direction)
	}
	p, ok := f.Ray(EyeLeft, DataError).Point(2)
	if !ok || p != (geom.Vec3{X: 1.5}) {
		t.Errorf("error ray point = %v ok=%v", p, ok)
	}
	if _, ok := f.Ray(EyeRight, DataError).Point(1); ok {
		t.Error("zero direction must not yield a point")
	}
}
