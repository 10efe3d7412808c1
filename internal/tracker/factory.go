package tracker

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shiwa/gaze-error-injector/internal/config"
)

// ErrDisabled — трекер выключен (disable: true или kind: none).
var ErrDisabled = errors.New("tracker disabled")

type constructor func(c config.Tracker) (Tracker, error)

var registry = map[Kind]constructor{
	KindCamera:    newCamera,
	KindSerial:    newSerial,
	KindReplay:    newReplay,
	KindSRanipal:  newVendor(KindSRanipal),
	KindVarjo:     newVendor(KindVarjo),
	KindHoloLens2: newVendor(KindHoloLens2),
	KindQuestPro:  newVendor(KindQuestPro),
}

// NewFromConfig создаёт Tracker из конфига (trackers.primary / trackers.secondary)
func NewFromConfig(c config.Tracker) (Tracker, error) {
	if c.Disable {
		return nil, ErrDisabled
	}
	kind, err := ParseKind(c.Kind)
	if err != nil {
		return nil, err
	}
	if kind == KindNone {
		return nil, ErrDisabled
	}
	ctor, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("tracker %s not registered", kind)
	}
	return ctor(c)
}

// Kinds возвращает зарегистрированные виды трекеров в порядке объявления.
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// KindNames — имена зарегистрированных видов через запятую (для справки и ошибок).
func KindNames() string {
	kinds := Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}

func newCamera(c config.Tracker) (Tracker, error) {
	return NewCamera(c.SweepDeg), nil
}

func newSerial(c config.Tracker) (Tracker, error) {
	if c.Device == "" {
		return nil, fmt.Errorf("serial: device required")
	}
	return NewSerial(KindSerial, c.Device, baudOrDefault(c.Baud)), nil
}

func newReplay(c config.Tracker) (Tracker, error) {
	if c.File == "" {
		return nil, fmt.Errorf("replay: file required")
	}
	return NewReplay(c.File, c.Loop), nil
}

func newVendor(kind Kind) constructor {
	return func(c config.Tracker) (Tracker, error) {
		if c.Device == "" {
			return nil, fmt.Errorf("%s: device required (bridge output port)", kind)
		}
		return NewSerial(kind, c.Device, baudOrDefault(c.Baud)), nil
	}
}

func baudOrDefault(baud int) int {
	if baud == 0 {
		return 115200
	}
	return baud
}
