package gaze

import (
	"fmt"
	"strings"
)

// ErrorMode — политика композиции ошибки между каналами.
type ErrorMode int

const (
	ModeNone        ErrorMode = iota // ошибка не добавляется
	ModeIndependent                  // каждый канал независимо
	ModeDependent                    // Left/Right независимо, Gaze выводится из них
)

func (m ErrorMode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeIndependent:
		return "independent"
	case ModeDependent:
		return "dependent"
	default:
		return "unknown"
	}
}

// ParseErrorMode разбирает имя режима (без учёта регистра).
func ParseErrorMode(s string) (ErrorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return ModeNone, nil
	case "independent":
		return ModeIndependent, nil
	case "dependent":
		return ModeDependent, nil
	default:
		return ModeNone, fmt.Errorf("unknown error mode %q", s)
	}
}

// MarshalText кодирует режим именем (JSON/YAML).
func (m ErrorMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText разбирает режим по имени.
func (m *ErrorMode) UnmarshalText(b []byte) error {
	v, err := ParseErrorMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// PrecisionMode — распределение точечного шума (precision error).
type PrecisionMode int

const (
	PrecisionUniform PrecisionMode = iota
	PrecisionGaussian
)

func (p PrecisionMode) String() string {
	switch p {
	case PrecisionUniform:
		return "uniform"
	case PrecisionGaussian:
		return "gaussian"
	default:
		return "unknown"
	}
}

// ParsePrecisionMode разбирает имя распределения; пустая строка — uniform.
func ParsePrecisionMode(s string) (PrecisionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uniform", "":
		return PrecisionUniform, nil
	case "gaussian":
		return PrecisionGaussian, nil
	default:
		return PrecisionUniform, fmt.Errorf("unknown precision mode %q", s)
	}
}

// MarshalText кодирует распределение именем.
func (p PrecisionMode) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText разбирает распределение по имени.
func (p *PrecisionMode) UnmarshalText(b []byte) error {
	v, err := ParsePrecisionMode(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Eye — канал кадра.
type Eye int

const (
	EyeGaze Eye = iota
	EyeLeft
	EyeRight
)

func (e Eye) String() string {
	switch e {
	case EyeGaze:
		return "gaze"
	case EyeLeft:
		return "left"
	case EyeRight:
		return "right"
	default:
		return "unknown"
	}
}

// Eyes — все каналы в порядке публикации.
var Eyes = [3]Eye{EyeGaze, EyeLeft, EyeRight}

// DataKind выбирает исходные или искажённые данные канала.
type DataKind int

const (
	DataError DataKind = iota
	DataOriginal
)
