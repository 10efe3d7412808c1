// Package engine — ErrorCompositionEngine: раз в тик забирает сырой кадр у трекера,
// прогоняет каналы через ChannelPipeline по текущему режиму и публикует GazeErrorFrame
// наблюдателям. Последний кадр доступен через Latest.
package engine

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/shiwa/gaze-error-injector/internal/gaze"
	"github.com/shiwa/gaze-error-injector/internal/geom"
	"github.com/shiwa/gaze-error-injector/internal/pipeline"
)

// MaxObservers — предел числа наблюдателей.
const MaxObservers = 16

// ErrTooManyObservers — список наблюдателей заполнен.
var ErrTooManyObservers = errors.New("engine: too many observers")

// Source — источник сырых данных на тик (трекер или выборщик трекеров).
type Source interface {
	GetGazeData() (gaze.RawGazeFrame, bool)
	GetOriginTransform() gaze.Transform
}

// Observer получает каждый опубликованный кадр синхронно, в порядке подписки.
// Наблюдатель не должен блокироваться: следующий тик ждёт его завершения.
type Observer interface {
	OnFrame(f gaze.GazeErrorFrame)
}

// ObserverFunc — адаптер функции к Observer.
type ObserverFunc func(f gaze.GazeErrorFrame)

// OnFrame вызывает f.
func (fn ObserverFunc) OnFrame(f gaze.GazeErrorFrame) { fn(f) }

// Stats — счётчики тиков.
type Stats struct {
	Ticks      uint64 `json:"ticks"`
	Frames     uint64 `json:"frames"`
	NoData     uint64 `json:"no_data"`
	Inactive   uint64 `json:"inactive"`
	Degenerate uint64 `json:"degenerate"`
}

// Engine — движок композиции ошибок. Tick вызывается из одного цикла и не перекрывается;
// Latest, Stats, Subscribe и настройки безопасны из других горутин.
type Engine struct {
	pipeline *pipeline.Pipeline
	settings *SettingsStore

	latest atomic.Pointer[gaze.GazeErrorFrame]
	active atomic.Bool
	seq    uint64

	mu        sync.Mutex
	observers []Observer

	ticks, frames, noData, inactive, degenerate atomic.Uint64
}

// New создаёт активный движок.
func New(p *pipeline.Pipeline, settings *SettingsStore) *Engine {
	e := &Engine{
		pipeline: p,
		settings: settings,
	}
	e.active.Store(true)
	return e
}

// Settings возвращает хранилище настроек движка.
func (e *Engine) Settings() *SettingsStore {
	return e.settings
}

// Subscribe добавляет наблюдателя в конец списка.
func (e *Engine) Subscribe(o Observer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.observers) >= MaxObservers {
		return ErrTooManyObservers
	}
	e.observers = append(e.observers, o)
	return nil
}

// SetActive включает или выключает инъекцию; выключенный движок пропускает тики.
func (e *Engine) SetActive(on bool) {
	e.active.Store(on)
}

// Active сообщает, включён ли движок.
func (e *Engine) Active() bool {
	return e.active.Load()
}

// Toggle переключает состояние и возвращает новое.
func (e *Engine) Toggle() bool {
	for {
		old := e.active.Load()
		if e.active.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Latest возвращает последний опубликованный кадр; false — кадров ещё не было.
func (e *Engine) Latest() (gaze.GazeErrorFrame, bool) {
	p := e.latest.Load()
	if p == nil {
		return gaze.GazeErrorFrame{}, false
	}
	return *p, true
}

// Stats возвращает снимок счётчиков.
func (e *Engine) Stats() Stats {
	return Stats{
		Ticks:      e.ticks.Load(),
		Frames:     e.frames.Load(),
		NoData:     e.noData.Load(),
		Inactive:   e.inactive.Load(),
		Degenerate: e.degenerate.Load(),
	}
}

// Tick выполняет один тик: нет кадра у src или движок выключен — кадр не создаётся (false).
// Режим и настройки читаются один раз в начале тика.
func (e *Engine) Tick(src Source) (gaze.GazeErrorFrame, bool) {
	e.ticks.Add(1)
	if !e.active.Load() {
		e.inactive.Add(1)
		return gaze.GazeErrorFrame{}, false
	}
	raw, ok := src.GetGazeData()
	if !ok {
		e.noData.Add(1)
		return gaze.GazeErrorFrame{}, false
	}
	up := src.GetOriginTransform().Up
	settings := e.settings.Load()

	f := e.Compose(raw, up, settings)
	e.seq++
	f.Seq = e.seq
	e.latest.Store(&f)
	e.frames.Add(1)

	e.mu.Lock()
	obs := make([]Observer, len(e.observers))
	copy(obs, e.observers)
	e.mu.Unlock()
	for _, o := range obs {
		o.OnFrame(f)
	}
	return f, true
}

// Compose строит кадр из сырого кадра по режиму s.Mode без публикации. Seq не заполняется.
func (e *Engine) Compose(raw gaze.RawGazeFrame, up geom.Vec3, s Settings) gaze.GazeErrorFrame {
	f := gaze.GazeErrorFrame{Mode: s.Mode}
	switch s.Mode {
	case gaze.ModeIndependent:
		f.Gaze = e.process(raw.Gaze, s.Gaze, up)
		f.Left = e.process(raw.Left, s.Left, up)
		f.Right = e.process(raw.Right, s.Right, up)
	case gaze.ModeDependent:
		f.Left = e.process(raw.Left, s.Left, up)
		f.Right = e.process(raw.Right, s.Right, up)
		f.Gaze = DeriveGaze(raw.Gaze, f.Left, f.Right)
	default:
		f.Gaze = gaze.Identity(raw.Gaze)
		f.Left = gaze.Identity(raw.Left)
		f.Right = gaze.Identity(raw.Right)
	}
	return f
}

func (e *Engine) process(sample gaze.EyeSample, cs gaze.ChannelErrorSettings, up geom.Vec3) gaze.ChannelErrorState {
	st, err := e.pipeline.Process(sample, cs, up)
	if err != nil {
		e.degenerate.Add(1)
	}
	return st
}

// DeriveGaze выводит комбинированный канал из уже обработанных левого и правого:
// оба валидны — среднее (без нормализации), один — его направление, ни одного — потеря.
// Сырые поля берутся из raw.
func DeriveGaze(raw gaze.EyeSample, left, right gaze.ChannelErrorState) gaze.ChannelErrorState {
	st := gaze.ChannelErrorState{
		Timestamp:    raw.Timestamp,
		Origin:       raw.Origin,
		RawDirection: raw.Direction,
		RawValid:     raw.Valid,
	}
	switch {
	case left.ErrorValid && right.ErrorValid:
		st.ErrorDirection = left.ErrorDirection.Add(right.ErrorDirection).Scale(0.5)
		st.ErrorValid = true
	case left.ErrorValid:
		st.ErrorDirection = left.ErrorDirection
		st.ErrorValid = true
	case right.ErrorValid:
		st.ErrorDirection = right.ErrorDirection
		st.ErrorValid = true
	default:
		st.ErrorDirection = geom.Zero
		st.ErrorValid = false
	}
	return st
}
