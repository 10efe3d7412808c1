package injector

import (
	"math"

	"github.com/shiwa/gaze-error-injector/internal/geom"
)

// maxPolarRejections ограничивает число подряд отклонённых пар в методе Марсальи.
// Вероятность отклонения пары ≈ 0.2146, поэтому с исправным источником предел
// недостижим; он срабатывает только на вырожденном источнике (константа).
const maxPolarRejections = 1 << 16

// UniformPrecision добавляет шум, равномерно распределённый в круге радиуса magnitudeDeg.
func UniformPrecision(direction, up geom.Vec3, magnitudeDeg float64, src Source) (geom.Vec3, error) {
	r := math.Sqrt(src.Float64()) * magnitudeDeg
	theta := src.Float64() * 2 * math.Pi
	x, y := r*math.Cos(theta), r*math.Sin(theta)
	angle, radius := geom.PolarDeg(x, y)
	return ApplyOffset(direction, up, angle, radius)
}

// GaussianPrecision добавляет шум с нормальным распределением по x и y (σ = magnitudeDeg).
func GaussianPrecision(direction, up geom.Vec3, magnitudeDeg float64, src Source) (geom.Vec3, error) {
	gx, err := Gaussian(src)
	if err != nil {
		return direction, err
	}
	gy, err := Gaussian(src)
	if err != nil {
		return direction, err
	}
	angle, radius := geom.PolarDeg(gx*magnitudeDeg, gy*magnitudeDeg)
	return ApplyOffset(direction, up, angle, radius)
}

// Gaussian возвращает стандартную нормальную величину полярным методом Марсальи.
// Пара (v1, v2) из [-1, 1) принимается при s = v1²+v2² ∈ (0, 1); второе значение v2·scale отбрасывается.
func Gaussian(src Source) (float64, error) {
	for i := 0; i < maxPolarRejections; i++ {
		v1 := 2*src.Float64() - 1
		v2 := 2*src.Float64() - 1
		s := v1*v1 + v2*v2
		if s == 0 || s >= 1 {
			continue
		}
		return v1 * math.Sqrt(-2*math.Log(s)/s), nil
	}
	return 0, ErrSourceStalled
}
