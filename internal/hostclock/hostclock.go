// Package hostclock — метки времени сэмплов синтетических трекеров (монотонные секунды).
package hostclock

import "time"

var start = time.Now()

func fallback() float64 {
	return time.Since(start).Seconds()
}
