package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/shiwa/gaze-error-injector/internal/gaze"
)

// Settings — конфигурация движка, читаемая один раз за тик: режим и настройки трёх каналов.
type Settings struct {
	Mode  gaze.ErrorMode            `json:"mode" yaml:"mode"`
	Gaze  gaze.ChannelErrorSettings `json:"gaze" yaml:"gaze"`
	Left  gaze.ChannelErrorSettings `json:"left_eye" yaml:"left_eye"`
	Right gaze.ChannelErrorSettings `json:"right_eye" yaml:"right_eye"`
}

// Channel возвращает настройки канала по глазу.
func (s Settings) Channel(eye gaze.Eye) gaze.ChannelErrorSettings {
	switch eye {
	case gaze.EyeLeft:
		return s.Left
	case gaze.EyeRight:
		return s.Right
	default:
		return s.Gaze
	}
}

// WithChannel возвращает копию с заменёнными настройками канала eye.
func (s Settings) WithChannel(eye gaze.Eye, cs gaze.ChannelErrorSettings) Settings {
	switch eye {
	case gaze.EyeLeft:
		s.Left = cs
	case gaze.EyeRight:
		s.Right = cs
	default:
		s.Gaze = cs
	}
	return s
}

// Normalize приводит направления смещения всех каналов в [0, 360).
func (s Settings) Normalize() Settings {
	s.Gaze = s.Gaze.Normalize()
	s.Left = s.Left.Normalize()
	s.Right = s.Right.Normalize()
	return s
}

// Validate проверяет режим и все три канала.
func (s Settings) Validate() error {
	switch s.Mode {
	case gaze.ModeNone, gaze.ModeIndependent, gaze.ModeDependent:
	default:
		return fmt.Errorf("%w: mode %d", gaze.ErrInvalidSettings, int(s.Mode))
	}
	for _, eye := range gaze.Eyes {
		if err := s.Channel(eye).Validate(); err != nil {
			return fmt.Errorf("%s: %w", eye, err)
		}
	}
	return nil
}

// SettingsStore хранит текущие Settings; запись — атомарная замена снимка,
// так что тик всегда видит согласованный набор (режим + три канала).
type SettingsStore struct {
	cur atomic.Pointer[Settings]
}

// NewSettingsStore создаёт хранилище. Начальные настройки нормализуются и проверяются.
func NewSettingsStore(initial Settings) (*SettingsStore, error) {
	st := &SettingsStore{}
	if err := st.Store(initial); err != nil {
		return nil, err
	}
	return st, nil
}

// Load возвращает текущий снимок.
func (st *SettingsStore) Load() Settings {
	if p := st.cur.Load(); p != nil {
		return *p
	}
	return Settings{}
}

// Store нормализует, проверяет и публикует s. При ошибке текущий снимок не меняется.
func (st *SettingsStore) Store(s Settings) error {
	s = s.Normalize()
	if err := s.Validate(); err != nil {
		return err
	}
	st.cur.Store(&s)
	return nil
}

// Update применяет fn к текущему снимку и публикует результат (CAS-цикл).
func (st *SettingsStore) Update(fn func(Settings) Settings) error {
	for {
		old := st.cur.Load()
		var base Settings
		if old != nil {
			base = *old
		}
		next := fn(base).Normalize()
		if err := next.Validate(); err != nil {
			return err
		}
		if st.cur.CompareAndSwap(old, &next) {
			return nil
		}
	}
}

// SetMode меняет только режим.
func (st *SettingsStore) SetMode(m gaze.ErrorMode) error {
	return st.Update(func(s Settings) Settings {
		s.Mode = m
		return s
	})
}

// SetChannel меняет настройки одного канала.
func (st *SettingsStore) SetChannel(eye gaze.Eye, cs gaze.ChannelErrorSettings) error {
	return st.Update(func(s Settings) Settings {
		return s.WithChannel(eye, cs)
	})
}
