package injector

import "github.com/shiwa/gaze-error-injector/internal/geom"

// DataLoss выбрасывает сэмпл с вероятностью probability: u ≤ p → geom.Zero.
// p ≤ 0 не выбрасывает никогда (даже при u == 0), p ≥ 1 — всегда.
func DataLoss(direction geom.Vec3, probability float64, src Source) geom.Vec3 {
	if probability <= 0 {
		return direction
	}
	if src.Float64() <= probability {
		return geom.Zero
	}
	return direction
}
