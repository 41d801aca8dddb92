package utils

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// DayCntBetween returns the number of whole days between two dates, regardless of order.
func DayCntBetween(t1, t2 time.Time) int {
	if t1.Before(t2) {
		t1, t2 = t2, t1
	}
	return int(t1.Sub(t2) / day)
}

// DateRange returns every day from begin to end, both inclusive. An end before begin yields nil.
func DateRange(begin, end time.Time) []time.Time {
	if end.Before(begin) {
		return nil
	}
	n := DayCntBetween(begin, end) + 1
	return DaysFrom(begin, n)
}

// DaysFrom returns n consecutive days starting at begin.
func DaysFrom(begin time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	res := make([]time.Time, n)
	for i := range res {
		res[i] = begin.AddDate(0, 0, i)
	}
	return res
}

func FormatFloat(f float64, round int32) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	p := math.Pow10(int(round))
	return math.Round(f*p) / p
}
