// Package gaze — модель данных инъекции ошибок взгляда: сырые сэмплы глаз, настройки каналов,
// состояния каналов с ошибкой и кадр GazeErrorFrame, публикуемый раз в тик.
package gaze

import (
	"github.com/shiwa/gaze-error-injector/internal/geom"
)

// EyeSample — одно сырое измерение глаза. Неизменяемо в пределах тика.
type EyeSample struct {
	Timestamp float64   `json:"timestamp"`
	Origin    geom.Vec3 `json:"origin"`
	Direction geom.Vec3 `json:"direction"` // номинально единичный
	Valid     bool      `json:"valid"`
}

// RawGazeFrame — сырые данные трекера за один тик: комбинированный взгляд и оба глаза.
type RawGazeFrame struct {
	Timestamp float64   `json:"timestamp"`
	Gaze      EyeSample `json:"gaze"`
	Left      EyeSample `json:"left"`
	Right     EyeSample `json:"right"`
}

// Transform — поза начала координат трекера (HMD или камера). Up задаёт ноль угла смещения.
type Transform struct {
	Position geom.Vec3 `json:"position"`
	Forward  geom.Vec3 `json:"forward"`
	Up       geom.Vec3 `json:"up"`
}

// DefaultTransform — поза по умолчанию: взгляд вдоль +Z, верх вдоль +Y.
func DefaultTransform() Transform {
	return Transform{
		Forward: geom.Vec3{Z: 1},
		Up:      geom.Vec3{Y: 1},
	}
}

// ChannelErrorState — результат ChannelPipeline для одного канала за тик (снимок только для чтения).
// ErrorDirection == geom.Zero означает потерю данных; при невалидном сыром сэмпле
// ErrorDirection повторяет RawDirection.
type ChannelErrorState struct {
	Timestamp      float64              `json:"timestamp"`
	Origin         geom.Vec3            `json:"origin"`
	RawDirection   geom.Vec3            `json:"raw_direction"`
	RawValid       bool                 `json:"raw_valid"`
	ErrorDirection geom.Vec3            `json:"error_direction"`
	ErrorValid     bool                 `json:"error_valid"`
	Settings       ChannelErrorSettings `json:"settings"`
}

// Identity возвращает состояние без ошибки: направление и валидность копируются из сэмпла.
func Identity(s EyeSample) ChannelErrorState {
	return ChannelErrorState{
		Timestamp:      s.Timestamp,
		Origin:         s.Origin,
		RawDirection:   s.Direction,
		RawValid:       s.Valid,
		ErrorDirection: s.Direction,
		ErrorValid:     s.Valid,
	}
}

// Lost возвращает true, если канал был выброшен инъекцией потери данных.
func (c ChannelErrorState) Lost() bool {
	return c.RawValid && !c.ErrorValid && c.ErrorDirection.IsZero()
}

// GazeErrorFrame — кадр с ошибкой за один тик. Ровно один «последний» кадр существует в любой момент.
type GazeErrorFrame struct {
	Seq   uint64            `json:"seq"`
	Mode  ErrorMode         `json:"mode"`
	Gaze  ChannelErrorState `json:"gaze"`
	Left  ChannelErrorState `json:"left"`
	Right ChannelErrorState `json:"right"`
}

// Channel возвращает состояние канала по глазу.
func (f GazeErrorFrame) Channel(eye Eye) ChannelErrorState {
	switch eye {
	case EyeLeft:
		return f.Left
	case EyeRight:
		return f.Right
	default:
		return f.Gaze
	}
}
