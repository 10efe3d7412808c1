package tracker

import (
	"math"

	"github.com/shiwa/gaze-error-injector/internal/gaze"
	"github.com/shiwa/gaze-error-injector/internal/geom"
	"github.com/shiwa/gaze-error-injector/internal/hostclock"
)

// sweepHz — частота синусоидального качания взгляда камеры
const sweepHz = 0.25

// Camera — синтетический трекер без устройства: взгляд вдоль forward камеры, один и тот же
// для всех трёх каналов, всегда валиден. sweepDeg > 0 добавляет качание по горизонтали.
type Camera struct {
	sweepDeg    float64
	transform   gaze.Transform
	now         func() float64
	initialized bool
}

// NewCamera создаёт синтетический трекер
func NewCamera(sweepDeg float64) *Camera {
	return &Camera{
		sweepDeg:  sweepDeg,
		transform: gaze.DefaultTransform(),
		now:       hostclock.Now,
	}
}

// Name возвращает имя трекера
func (c *Camera) Name() string {
	return "camera"
}

// Kind возвращает вид трекера
func (c *Camera) Kind() Kind {
	return KindCamera
}

// Initialize всегда успешен
func (c *Camera) Initialize() bool {
	c.initialized = true
	return true
}

// Status возвращает StatusLive после Initialize
func (c *Camera) Status() Status {
	if !c.initialized {
		return StatusUnavailable
	}
	return StatusLive
}

// GetGazeData строит кадр на текущий момент
func (c *Camera) GetGazeData() (gaze.RawGazeFrame, bool) {
	if !c.initialized {
		return gaze.RawGazeFrame{}, false
	}
	return c.frameAt(c.now()), true
}

func (c *Camera) frameAt(ts float64) gaze.RawGazeFrame {
	dir := c.transform.Forward
	if c.sweepDeg != 0 {
		yaw := c.sweepDeg * math.Sin(2*math.Pi*sweepHz*ts)
		if d, err := geom.Rotate(dir, c.transform.Up, yaw); err == nil {
			dir = d
		}
	}
	s := gaze.EyeSample{
		Timestamp: ts,
		Origin:    c.transform.Position,
		Direction: dir,
		Valid:     true,
	}
	return gaze.RawGazeFrame{Timestamp: ts, Gaze: s, Left: s, Right: s}
}

// GetOriginTransform возвращает позу камеры
func (c *Camera) GetOriginTransform() gaze.Transform {
	return c.transform
}

// Close ничего не делает
func (c *Camera) Close() error {
	c.initialized = false
	return nil
}
