package summary

import (
	"math"
	"slices"
)

// Percentile returns the p-th percentile (0 <= p <= 100) of values using
// linear interpolation between closest ranks, the Hyndman and Fan "R-7"
// method that numpy uses by default. values is not modified.
//
// Percentile returns NaN for an empty slice or a p outside [0, 100].
func Percentile(values []float64, p float64) float64 {
	return Percentiles(values, p)[0]
}

// Percentiles is Percentile for several ranks, sorting values once.
func Percentiles(values []float64, ps ...float64) []float64 {
	res := make([]float64, len(ps))
	if len(values) == 0 {
		for i := range res {
			res[i] = math.NaN()
		}
		return res
	}
	sorted := values
	if !slices.IsSorted(values) {
		sorted = slices.Clone(values)
		slices.Sort(sorted)
	}
	for i, p := range ps {
		if !(0 <= p && p <= 100) {
			res[i] = math.NaN()
			continue
		}
		res[i] = hyndmanFanR7(sorted, p/100)
	}
	return res
}

// hyndmanFanR7 interpolates between the closest ranks. When either rank is
// infinite there is nothing to interpolate and the nearest rank is used.
func hyndmanFanR7(sorted []float64, q float64) float64 {
	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	a, b := sorted[lo], sorted[hi]
	if lo == hi || a == b {
		return a
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return sorted[int(math.Round(h))]
	}
	return a + (h-float64(lo))*(b-a)
}
