package gaze

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSettings — настройки канала вне допустимого диапазона.
var ErrInvalidSettings = errors.New("invalid channel error settings")

// ChannelErrorSettings — настройки ошибки одного канала. Углы в градусах.
// Нулевая амплитуда даёт тождественное поведение соответствующего инжектора.
type ChannelErrorSettings struct {
	AccuracyDirectionDeg  float64       `json:"accuracy_direction_deg" yaml:"accuracy_direction_deg"` // [0, 360), 0 = вправо, против часовой
	AccuracyMagnitudeDeg  float64       `json:"accuracy_magnitude_deg" yaml:"accuracy_magnitude_deg"` // >= 0
	PrecisionMode         PrecisionMode `json:"precision_mode" yaml:"precision_mode"`
	PrecisionMagnitudeDeg float64       `json:"precision_magnitude_deg" yaml:"precision_magnitude_deg"` // >= 0
	DataLossProbability   float64       `json:"data_loss_probability" yaml:"data_loss_probability"`     // [0, 1]
}

// Normalize приводит направление смещения в [0, 360) (например, 360 → 0, -90 → 270).
func (s ChannelErrorSettings) Normalize() ChannelErrorSettings {
	d := math.Mod(s.AccuracyDirectionDeg, 360)
	if d < 0 {
		d += 360
	}
	s.AccuracyDirectionDeg = d
	return s
}

// Validate проверяет диапазоны. Вызывается при присваивании настроек (конфиг, API), не на каждом тике.
func (s ChannelErrorSettings) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"accuracy_direction_deg", s.AccuracyDirectionDeg},
		{"accuracy_magnitude_deg", s.AccuracyMagnitudeDeg},
		{"precision_magnitude_deg", s.PrecisionMagnitudeDeg},
		{"data_loss_probability", s.DataLossProbability},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidSettings, f.name)
		}
	}
	if s.AccuracyDirectionDeg < 0 || s.AccuracyDirectionDeg >= 360 {
		return fmt.Errorf("%w: accuracy_direction_deg %v not in [0,360)", ErrInvalidSettings, s.AccuracyDirectionDeg)
	}
	if s.AccuracyMagnitudeDeg < 0 {
		return fmt.Errorf("%w: accuracy_magnitude_deg %v < 0", ErrInvalidSettings, s.AccuracyMagnitudeDeg)
	}
	if s.PrecisionMagnitudeDeg < 0 {
		return fmt.Errorf("%w: precision_magnitude_deg %v < 0", ErrInvalidSettings, s.PrecisionMagnitudeDeg)
	}
	if s.PrecisionMode != PrecisionUniform && s.PrecisionMode != PrecisionGaussian {
		return fmt.Errorf("%w: precision_mode %d", ErrInvalidSettings, int(s.PrecisionMode))
	}
	if s.DataLossProbability < 0 || s.DataLossProbability > 1 {
		return fmt.Errorf("%w: data_loss_probability %v not in [0,1]", ErrInvalidSettings, s.DataLossProbability)
	}
	return nil
}
