// Package election — выбор активного трекера на каждом тике: сначала primary, при недоступности — secondary.
package election

import (
	"github.com/shiwa/gaze-error-injector/internal/gaze"
	"github.com/shiwa/gaze-error-injector/internal/tracker"
)

// Election — выбор активного трекера
type Election struct {
	primary   []tracker.Tracker
	secondary []tracker.Tracker
	active    tracker.Tracker
	onSwitch  func(from, to tracker.Tracker)
}

// New создаёт выборщик из списков primary и secondary
func New(primary, secondary []tracker.Tracker) *Election {
	return &Election{
		primary:   primary,
		secondary: secondary,
	}
}

// OnSwitch задаёт обработчик смены активного трекера (to == nil — трекеров нет).
func (e *Election) OnSwitch(fn func(from, to tracker.Tracker)) {
	e.onSwitch = fn
}

// Select выбирает лучший доступный трекер: сначала primary, при недоступности — secondary
func (e *Election) Select() tracker.Tracker {
	next := e.pick()
	if next != e.active && e.onSwitch != nil {
		e.onSwitch(e.active, next)
	}
	e.active = next
	return next
}

func (e *Election) pick() tracker.Tracker {
	for _, t := range e.primary {
		if t.Status().IsUsable() {
			return t
		}
	}
	for _, t := range e.secondary {
		if t.Status().IsUsable() {
			return t
		}
	}
	return nil
}

// Active возвращает текущий активный трекер (после Select)
func (e *Election) Active() tracker.Tracker {
	return e.active
}

// GetGazeData выбирает трекер и возвращает его кадр; если активного нет — (zero, false)
func (e *Election) GetGazeData() (gaze.RawGazeFrame, bool) {
	if e.Select() == nil {
		return gaze.RawGazeFrame{}, false
	}
	return e.active.GetGazeData()
}

// GetOriginTransform возвращает позу активного трекера; без активного — DefaultTransform
func (e *Election) GetOriginTransform() gaze.Transform {
	if e.active == nil {
		return gaze.DefaultTransform()
	}
	return e.active.GetOriginTransform()
}

// Initialize инициализирует все трекеры и возвращает число успешных.
func (e *Election) Initialize() int {
	n := 0
	for _, list := range [][]tracker.Tracker{e.primary, e.secondary} {
		for _, t := range list {
			if t.Initialize() {
				n++
			}
		}
	}
	return n
}

// Close закрывает все трекеры
func (e *Election) Close() {
	for _, list := range [][]tracker.Tracker{e.primary, e.secondary} {
		for _, t := range list {
			_ = t.Close()
		}
	}
	e.active = nil
}
