// Package pipeline — ChannelPipeline: применяет к одному сэмплу глаза потерю данных,
// затем accuracy и precision согласно настройкам канала.
package pipeline

import (
	"fmt"

	"github.com/shiwa/gaze-error-injector/internal/gaze"
	"github.com/shiwa/gaze-error-injector/internal/geom"
	"github.com/shiwa/gaze-error-injector/internal/injector"
)

// Pipeline — конвейер инжекторов одного процесса. Не потокобезопасен: источник
// случайности общий для всех каналов и вызывается только из тика.
type Pipeline struct {
	table injector.Table
	src   injector.Source
}

// Option настраивает Pipeline
type Option func(*Pipeline)

// WithTable подменяет таблицу инжекторов (инструментирование в тестах).
func WithTable(t injector.Table) Option {
	return func(p *Pipeline) {
		p.table = t
	}
}

// New создаёт конвейер со штатными инжекторами и источником src.
func New(src injector.Source, opts ...Option) *Pipeline {
	p := &Pipeline{
		table: injector.Default(),
		src:   src,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process строит ChannelErrorState для sample. up — верх HMD на этом тике.
// Порядок: невалидный сэмпл → без инжекторов; потеря данных → стоп; иначе accuracy, затем precision.
// Ошибка возвращается только при вырожденной геометрии; состояние в этом случае уже
// помечено невалидным, ErrorDirection повторяет сырое направление.
func (p *Pipeline) Process(sample gaze.EyeSample, settings gaze.ChannelErrorSettings, up geom.Vec3) (gaze.ChannelErrorState, error) {
	st := gaze.ChannelErrorState{
		Timestamp:    sample.Timestamp,
		Origin:       sample.Origin,
		RawDirection: sample.Direction,
		RawValid:     sample.Valid,
		Settings:     settings,
	}
	if !sample.Valid {
		st.ErrorDirection = sample.Direction
		st.ErrorValid = false
		return st, nil
	}
	if !sample.Direction.IsFinite() {
		return degenerate(st, fmt.Errorf("%w: direction %v", injector.ErrDegenerate, sample.Direction))
	}

	dir, err := p.table.Apply(injector.KindDataLoss, sample.Direction,
		injector.Params{Probability: settings.DataLossProbability}, p.src)
	if err != nil {
		return degenerate(st, err)
	}
	if dir.IsZero() {
		st.ErrorDirection = geom.Zero
		st.ErrorValid = false
		return st, nil
	}

	dir, err = p.table.Apply(injector.KindAccuracy, dir, injector.Params{
		Up:           up,
		DirectionDeg: settings.AccuracyDirectionDeg,
		MagnitudeDeg: settings.AccuracyMagnitudeDeg,
	}, p.src)
	if err != nil {
		return degenerate(st, err)
	}
	dir, err = p.table.Apply(injector.PrecisionKind(settings.PrecisionMode), dir, injector.Params{
		Up:           up,
		MagnitudeDeg: settings.PrecisionMagnitudeDeg,
	}, p.src)
	if err != nil {
		return degenerate(st, err)
	}

	st.ErrorDirection = dir
	st.ErrorValid = true
	return st, nil
}

func degenerate(st gaze.ChannelErrorState, err error) (gaze.ChannelErrorState, error) {
	st.ErrorDirection = st.RawDirection
	st.ErrorValid = false
	return st, err
}
