package geom

import "math"

// Коэффициенты перевода градусов и радиан
const (
	Deg2Rad = math.Pi / 180
	Rad2Deg = 180 / math.Pi
)

// Rotate поворачивает v вокруг axis на deg градусов по формуле Родрига.
// Положительный угол — против часовой стрелки при взгляде с конца оси на начало координат.
// При deg == 0 возвращает v без изменений (бит в бит), ось не проверяется.
func Rotate(v, axis Vec3, deg float64) (Vec3, error) {
	if deg == 0 {
		return v, nil
	}
	k, ok := axis.Normalized()
	if !ok {
		return v, ErrZeroAxis
	}
	rad := deg * Deg2Rad
	c, s := math.Cos(rad), math.Sin(rad)
	// v·cos + (k×v)·sin + k·(k·v)·(1−cos)
	out := v.Scale(c).Add(k.Cross(v).Scale(s)).Add(k.Scale(k.Dot(v) * (1 - c)))
	return out, nil
}

// PolarDeg переводит точку (x, y) на плоскости смещения в полярные координаты:
// угол в [0, 360) и радиус. Для (0, 0) угол равен 0.
func PolarDeg(x, y float64) (angleDeg, radius float64) {
	angleDeg = math.Mod(math.Atan2(y, x)*Rad2Deg+360, 360)
	radius = math.Sqrt(x*x + y*y)
	return angleDeg, radius
}
