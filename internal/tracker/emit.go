package tracker

import (
	"fmt"
	"io"

	"github.com/shiwa/gaze-error-injector/internal/gzp"
)

// WriteSynthetic пишет в w пакет ORIGIN и frames кадров синтетической камеры
// с шагом 1/sampleRate (формат, который читает Replay).
func WriteSynthetic(w io.Writer, frames, sampleRate int, sweepDeg float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be > 0")
	}
	cam := NewCamera(sweepDeg)
	if _, err := w.Write(gzp.EncodeOrigin(cam.GetOriginTransform())); err != nil {
		return err
	}
	dt := 1 / float64(sampleRate)
	for i := 0; i < frames; i++ {
		if _, err := w.Write(gzp.EncodeRawFrame(cam.frameAt(float64(i) * dt))); err != nil {
			return err
		}
	}
	return nil
}
