// Package injector — инжекторы ошибок взгляда: точность (accuracy), точечный шум (precision,
// uniform/gaussian) и потеря данных. Каждый инжектор — чистая функция
// (направление, параметры, источник случайности) -> направление; набор закрыт и
// выбирается по Kind через таблицу Table.
package injector

import (
	"errors"
	"fmt"

	"github.com/shiwa/gaze-error-injector/internal/gaze"
	"github.com/shiwa/gaze-error-injector/internal/geom"
)

var (
	// ErrDegenerate — геометрия не позволяет вычислить смещение (нулевая ось, NaN).
	ErrDegenerate = errors.New("injector: degenerate geometry")
	// ErrSourceStalled — источник случайности не даёт допустимых значений (например, константа).
	ErrSourceStalled = errors.New("injector: random source stalled")
)

// Kind — вариант инжектора
type Kind int

const (
	KindDataLoss Kind = iota
	KindAccuracy
	KindPrecisionUniform
	KindPrecisionGaussian
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindDataLoss:
		return "data_loss"
	case KindAccuracy:
		return "accuracy"
	case KindPrecisionUniform:
		return "precision_uniform"
	case KindPrecisionGaussian:
		return "precision_gaussian"
	default:
		return "unknown"
	}
}

// PrecisionKind возвращает вариант precision-инжектора для режима канала.
func PrecisionKind(m gaze.PrecisionMode) Kind {
	if m == gaze.PrecisionGaussian {
		return KindPrecisionGaussian
	}
	return KindPrecisionUniform
}

// Params — параметры одного вызова. Каждый вариант читает только свои поля.
type Params struct {
	Up           geom.Vec3 // верх HMD: ноль угла направления смещения
	DirectionDeg float64   // accuracy: направление смещения
	MagnitudeDeg float64   // accuracy/precision: амплитуда в градусах
	Probability  float64   // data loss: вероятность потери
}

// Func — сигнатура инжектора.
type Func func(dir geom.Vec3, p Params, src Source) (geom.Vec3, error)

// Table — таблица вариантов по Kind. Нулевое значение пусто; используйте Default.
type Table [kindCount]Func

// Default возвращает таблицу штатных инжекторов.
func Default() Table {
	return Table{
		KindDataLoss: func(dir geom.Vec3, p Params, src Source) (geom.Vec3, error) {
			return DataLoss(dir, p.Probability, src), nil
		},
		KindAccuracy: func(dir geom.Vec3, p Params, _ Source) (geom.Vec3, error) {
			return Accuracy(dir, p.Up, p.DirectionDeg, p.MagnitudeDeg)
		},
		KindPrecisionUniform: func(dir geom.Vec3, p Params, src Source) (geom.Vec3, error) {
			return UniformPrecision(dir, p.Up, p.MagnitudeDeg, src)
		},
		KindPrecisionGaussian: func(dir geom.Vec3, p Params, src Source) (geom.Vec3, error) {
			return GaussianPrecision(dir, p.Up, p.MagnitudeDeg, src)
		},
	}
}

// Apply вызывает вариант k.
func (t Table) Apply(k Kind, dir geom.Vec3, p Params, src Source) (geom.Vec3, error) {
	if k < 0 || k >= kindCount || t[k] == nil {
		return dir, fmt.Errorf("injector %s not registered", k)
	}
	return t[k](dir, p, src)
}

// ApplyOffset поворачивает direction на magnitudeDeg в сторону angleDeg:
// ось ошибки — up, повёрнутый вокруг direction на angleDeg; затем direction
// поворачивается вокруг оси ошибки на magnitudeDeg. magnitudeDeg == 0 — тождество.
func ApplyOffset(direction, up geom.Vec3, angleDeg, magnitudeDeg float64) (geom.Vec3, error) {
	if magnitudeDeg == 0 {
		return direction, nil
	}
	errorAxis, err := geom.Rotate(up, direction, angleDeg)
	if err != nil {
		return direction, fmt.Errorf("%w: error axis: %v", ErrDegenerate, err)
	}
	out, err := geom.Rotate(direction, errorAxis, magnitudeDeg)
	if err != nil {
		return direction, fmt.Errorf("%w: offset: %v", ErrDegenerate, err)
	}
	return out, nil
}
