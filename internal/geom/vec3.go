// Package geom — минимальная 3D-геометрия для инъекции ошибок взгляда: Vec3 и поворот вокруг оси.
package geom

import (
	"errors"
	"math"
)

// ErrZeroAxis — ось поворота нулевой длины или содержит NaN/Inf.
var ErrZeroAxis = errors.New("geom: zero-length rotation axis")

// Vec3 — вектор в трёхмерном пространстве (правая система координат).
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Zero — нулевой вектор; в ChannelErrorState означает «данные потеряны».
var Zero = Vec3{}

// Add возвращает v + o
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub возвращает v - o
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale возвращает v * s
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot — скалярное произведение
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross — векторное произведение v × o
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Len — длина вектора
func (v Vec3) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

// IsZero возвращает true для нулевого вектора (в том числе -0).
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// IsFinite возвращает false, если хотя бы одна компонента NaN или ±Inf.
func (v Vec3) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Normalized возвращает единичный вектор того же направления; ok=false для нулевого или не конечного вектора.
func (v Vec3) Normalized() (Vec3, bool) {
	if !v.IsFinite() {
		return Vec3{}, false
	}
	l := v.Len()
	if l == 0 || math.IsInf(l, 0) {
		return Vec3{}, false
	}
	return v.Scale(1 / l), true
}

// Angle возвращает угол между a и b в градусах; для нулевых векторов — 0.
func Angle(a, b Vec3) float64 {
	la, lb := a.Len(), b.Len()
	if la == 0 || lb == 0 {
		return 0
	}
	c := a.Dot(b) / (la * lb)
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c) * Rad2Deg
}
