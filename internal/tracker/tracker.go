// Package tracker — провайдеры данных айтрекеров: синтетическая камера, поток пакетов gzp
// по последовательному порту (в т.ч. от мостов вендорских SDK) и воспроизведение записи.
// Провайдер выбирается по Kind через явный реестр (factory.go).
package tracker

import (
	"fmt"
	"strings"

	"github.com/shiwa/gaze-error-injector/internal/gaze"
)

// Tracker — провайдер сырых данных взгляда
type Tracker interface {
	// Name возвращает имя трекера для логов
	Name() string
	// Kind возвращает вид трекера
	Kind() Kind
	// Initialize подключается к устройству; false — трекер недоступен
	Initialize() bool
	// Status возвращает состояние трекера
	Status() Status
	// GetGazeData возвращает новый кадр; false — нового кадра нет
	GetGazeData() (gaze.RawGazeFrame, bool)
	// GetOriginTransform возвращает позу начала координат (HMD или камера)
	GetOriginTransform() gaze.Transform
	// Close освобождает ресурсы
	Close() error
}

// Status — состояние трекера
type Status int

const (
	StatusUnavailable Status = iota
	StatusStale              // подключён, но данных давно не было
	StatusLive               // данные идут
)

func (s Status) String() string {
	switch s {
	case StatusUnavailable:
		return "unavailable"
	case StatusStale:
		return "stale"
	case StatusLive:
		return "live"
	default:
		return "unknown"
	}
}

// IsUsable возвращает true, если с трекера можно брать кадры
func (s Status) IsUsable() bool {
	return s == StatusLive
}

// Kind — вид трекера
type Kind int

const (
	KindNone Kind = iota
	KindCamera
	KindSRanipal
	KindVarjo
	KindHoloLens2
	KindQuestPro
	KindSerial
	KindReplay
)

var kindNames = map[Kind]string{
	KindNone:      "none",
	KindCamera:    "camera",
	KindSRanipal:  "sranipal",
	KindVarjo:     "varjo",
	KindHoloLens2: "hololens2",
	KindQuestPro:  "questpro",
	KindSerial:    "serial",
	KindReplay:    "replay",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsVendor возвращает true для трекеров, данные которых приходят от моста вендорского SDK.
func (k Kind) IsVendor() bool {
	switch k {
	case KindSRanipal, KindVarjo, KindHoloLens2, KindQuestPro:
		return true
	}
	return false
}

// ParseKind разбирает имя вида (без учёта регистра); пустая строка — none.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return KindNone, nil
	}
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("unknown tracker kind: %s (known: none, %s)", s, KindNames())
}
