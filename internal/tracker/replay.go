package tracker

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shiwa/gaze-error-injector/internal/gaze"
	"github.com/shiwa/gaze-error-injector/internal/gzp"
	"github.com/shiwa/gaze-error-injector/internal/logger"
)

// Replay — воспроизведение файла пакетов gzp: один RAW-FRAME на вызов GetGazeData,
// т.е. темп задаёт частота тиков. loop — начать сначала по концу файла.
type Replay struct {
	path      string
	loop      bool
	f         *os.File
	r         *gzp.Reader
	transform gaze.Transform
	done      bool
}

// NewReplay создаёт трекер воспроизведения
func NewReplay(path string, loop bool) *Replay {
	return &Replay{
		path:      path,
		loop:      loop,
		transform: gaze.DefaultTransform(),
	}
}

// Name возвращает имя трекера
func (r *Replay) Name() string {
	return fmt.Sprintf("replay:%s", r.path)
}

// Kind возвращает вид трекера
func (r *Replay) Kind() Kind {
	return KindReplay
}

// Initialize открывает файл
func (r *Replay) Initialize() bool {
	if r.f != nil {
		return true
	}
	f, err := os.Open(r.path)
	if err != nil {
		logger.Error("%s: %v", r.Name(), err)
		return false
	}
	r.f = f
	r.r = gzp.NewReader(f)
	r.done = false
	return true
}

// Status: Live, пока файл открыт и не закончился
func (r *Replay) Status() Status {
	if r.f == nil || r.done {
		return StatusUnavailable
	}
	return StatusLive
}

// GetGazeData читает следующий RAW-FRAME; пакеты ORIGIN обновляют позу по пути.
func (r *Replay) GetGazeData() (gaze.RawGazeFrame, bool) {
	if r.f == nil || r.done {
		return gaze.RawGazeFrame{}, false
	}
	rewound := false
	for {
		p, err := r.r.Next()
		if err != nil {
			if errors.Is(err, gzp.ErrChecksum) {
				continue
			}
			if (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)) && r.loop && !rewound {
				if _, serr := r.f.Seek(0, io.SeekStart); serr == nil {
					r.r = gzp.NewReader(r.f)
					rewound = true
					continue
				}
			}
			r.done = true
			return gaze.RawGazeFrame{}, false
		}
		switch {
		case p.IsOrigin():
			if t, err := gzp.ParseOrigin(p.Payload); err == nil {
				r.transform = t
			}
		case p.IsRawFrame():
			f, err := gzp.ParseRawFrame(p.Payload)
			if err != nil {
				continue
			}
			return f, true
		}
	}
}

// GetOriginTransform возвращает последнюю прочитанную позу
func (r *Replay) GetOriginTransform() gaze.Transform {
	return r.transform
}

// Close закрывает файл
func (r *Replay) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
