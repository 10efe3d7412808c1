package injector

import (
	"math/rand/v2"
	"time"
)

// Source — источник равномерных чисел в [0, 1). *rand.Rand удовлетворяет интерфейсу.
// Передаётся явно в каждый вызов; глобального генератора нет.
type Source interface {
	Float64() float64
}

// NewSource создаёт детерминированный PCG-генератор. seed == 0 — засев от текущего времени.
func NewSource(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
