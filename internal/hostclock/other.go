//go:build !linux

package hostclock

import "time"

// Now возвращает секунды с запуска процесса (монотонные).
func Now() float64 {
	return fallback()
}

// Resolution на не-Linux неизвестно.
func Resolution() time.Duration {
	return 0
}
