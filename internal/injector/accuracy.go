package injector

import "github.com/shiwa/gaze-error-injector/internal/geom"

// Accuracy добавляет постоянное угловое смещение: directionDeg — направление (0 = вправо,
// против часовой), magnitudeDeg — амплитуда. Детерминирован.
func Accuracy(direction, up geom.Vec3, directionDeg, magnitudeDeg float64) (geom.Vec3, error) {
	return ApplyOffset(direction, up, directionDeg, magnitudeDeg)
}
