// Package jitter добавляет случайный разброс к интервалам повторных
// попыток, чтобы одновременные ретраи не били по базе синхронно.
package jitter

import (
	"math/rand"
	"time"
)

// DefaultJitter — коэффициент разброса по умолчанию (до +50%).
const DefaultJitter = 0.5

// Duration возвращает d, увеличенную на случайную долю до factor.
// Результат лежит в [d, d*(1+factor)].
func Duration(d time.Duration, factor float64) time.Duration {
	if factor <= 0 || d <= 0 {
		return d
	}

	return d + time.Duration(rand.Float64()*factor*float64(d))
}

// ExponentialBackoff возвращает задержку перед попыткой attempt
// (нумерация с нуля): base удваивается на каждую попытку, сверху
// ограничивается max, затем к результату применяется разброс factor.
func ExponentialBackoff(base, max time.Duration, attempt int, factor float64) time.Duration {
	d := base
	for ; attempt > 0 && d < max; attempt-- {
		d *= 2
	}

	if d > max {
		d = max
	}

	return Duration(d, factor)
}
