// Package quality — оценка качества деградированного потока по окну последних кадров:
// точность (средний угол между сырым и искажённым направлением), прецизионность
// (RMS угла между соседними искажёнными сэмплами) и доля потерь. Подписывается на движок как наблюдатель.
package quality

import (
	"math"
	"sync"

	"github.com/shiwa/gaze-error-injector/internal/gaze"
	"github.com/shiwa/gaze-error-injector/internal/geom"
)

// Window — размер окна по каждому каналу
const Window = 64

type sample struct {
	offsetDeg float64
	jitterDeg float64
	hasJitter bool
	lost      bool
}

// ring — окно сэмплов одного канала. Сэмплы с невалидным сырым направлением не попадают в окно.
type ring struct {
	buf     [Window]sample
	idx     int
	n       int
	prev    geom.Vec3
	hasPrev bool
}

func (r *ring) add(st gaze.ChannelErrorState) {
	if !st.RawValid {
		return
	}
	var s sample
	switch {
	case st.ErrorValid:
		s.offsetDeg = geom.Angle(st.RawDirection, st.ErrorDirection)
		if r.hasPrev {
			s.jitterDeg = geom.Angle(r.prev, st.ErrorDirection)
			s.hasJitter = true
		}
		r.prev = st.ErrorDirection
		r.hasPrev = true
	case st.Lost():
		s.lost = true
	default:
		// вырожденная геометрия: не точность и не потеря
		return
	}
	r.buf[r.idx] = s
	r.idx = (r.idx + 1) % Window
	if r.n < Window {
		r.n++
	}
}

func (r *ring) stats() ChannelStats {
	out := ChannelStats{Samples: r.n}
	if r.n == 0 {
		return out
	}
	var lost, valid, jitterN int
	var sumOffset, sumJitter2 float64
	for i := 0; i < r.n; i++ {
		s := r.buf[i]
		if s.lost {
			lost++
			continue
		}
		valid++
		sumOffset += s.offsetDeg
		if s.hasJitter {
			jitterN++
			sumJitter2 += s.jitterDeg * s.jitterDeg
		}
	}
	out.DataLossRatio = float64(lost) / float64(r.n)
	if valid > 0 {
		out.AccuracyDeg = sumOffset / float64(valid)
	}
	if jitterN > 0 {
		out.PrecisionRMSDeg = math.Sqrt(sumJitter2 / float64(jitterN))
	}
	return out
}

// ChannelStats — метрики одного канала по окну
type ChannelStats struct {
	Samples         int     `json:"samples"`
	AccuracyDeg     float64 `json:"accuracy_deg"`
	PrecisionRMSDeg float64 `json:"precision_rms_deg"`
	DataLossRatio   float64 `json:"data_loss_ratio"`
}

// Report — метрики всех каналов
type Report struct {
	Frames uint64       `json:"frames"`
	Gaze   ChannelStats `json:"gaze"`
	Left   ChannelStats `json:"left"`
	Right  ChannelStats `json:"right"`
}

// Monitor — наблюдатель движка, считающий метрики по окну
type Monitor struct {
	mu     sync.Mutex
	rings  [len(gaze.Eyes)]ring
	frames uint64
}

// New создаёт монитор
func New() *Monitor {
	return &Monitor{}
}

// OnFrame добавляет кадр в окна каналов
func (m *Monitor) OnFrame(f gaze.GazeErrorFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames++
	for i, eye := range gaze.Eyes {
		m.rings[i].add(f.Channel(eye))
	}
}

// Report возвращает текущие метрики
func (m *Monitor) Report() Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Report{
		Frames: m.frames,
		Gaze:   m.rings[0].stats(),
		Left:   m.rings[1].stats(),
		Right:  m.rings[2].stats(),
	}
}

// Reset очищает окна (например, после смены настроек)
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rings = [len(gaze.Eyes)]ring{}
	m.frames = 0
}
