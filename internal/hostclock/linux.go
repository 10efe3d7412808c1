//go:build linux

package hostclock

import (
	"time"

	"golang.org/x/sys/unix"
)

// Now возвращает монотонное время CLOCK_MONOTONIC в секундах.
func Now() float64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return fallback()
	}
	return float64(ts.Sec) + float64(ts.Nsec)/1e9
}

// Resolution — разрешение CLOCK_MONOTONIC по clock_getres; 0, если ядро не ответило.
func Resolution() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGetres(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return time.Duration(ts.Nano())
}
