package gaze

import "github.com/shiwa/gaze-error-injector/internal/geom"

// Ray — луч взгляда: начало и направление.
type Ray struct {
	Origin    geom.Vec3 `json:"origin"`
	Direction geom.Vec3 `json:"direction"`
}

// Point возвращает точку на расстоянии dist вдоль луча (направление нормализуется).
// Для нулевого направления (потеря данных) ok=false.
func (r Ray) Point(dist float64) (geom.Vec3, bool) {
	d, ok := r.Direction.Normalized()
	if !ok {
		return geom.Vec3{}, false
	}
	return r.Origin.Add(d.Scale(dist)), true
}

// Ray возвращает исходный или искажённый луч канала.
func (c ChannelErrorState) Ray(kind DataKind) Ray {
	if kind == DataOriginal {
		return Ray{Origin: c.Origin, Direction: c.RawDirection}
	}
	return Ray{Origin: c.Origin, Direction: c.ErrorDirection}
}

// Valid сообщает, можно ли доверять лучу вида kind.
func (c ChannelErrorState) Valid(kind DataKind) bool {
	if kind == DataOriginal {
		return c.RawValid
	}
	return c.ErrorValid
}

// Ray возвращает луч канала eye кадра.
func (f GazeErrorFrame) Ray(eye Eye, kind DataKind) Ray {
	return f.Channel(eye).Ray(kind)
}
