package bocd

import (
	"math"
	"time"

	"github.com/lxxca/covid-prevalence-estimate/model"
)

const (
	defaultHazard               = 2 / 1000.0
	defaultChangePointThreshold = 0.75
	defaultObserveWindow        = 5
)

func LogSumExp(data []float64) float64 {
	max := math.Inf(-1)
	for _, v := range data {
		max = math.Max(max, v)
	}
	if math.IsInf(max, -1) {
		return max
	}
	res := 0.0
	for i := range data {
		res += math.Exp(data[i] - max)
	}
	return math.Log(res) + max
}

func NormalizeData(data []float64) []float64 {
	logSum := LogSumExp(data)
	res := make([]float64, len(data))
	for i := range data {
		res[i] = data[i] - logSum
	}
	return res
}

func ListExp(data []float64) []float64 {
	res := make([]float64, len(data))
	for i, v := range data {
		res[i] = math.Exp(v)
	}
	return res
}

func ListMul(l1, l2 []float64) []float64 {
	listLen := min(len(l1), len(l2))

	res := make([]float64, listLen)
	for i := 0; i < listLen; i++ {
		res[i] = l1[i] * l2[i]
	}
	return res
}

// ChangePointsBetween returns the change points dated within [begin, end].
func ChangePointsBetween(begin, end time.Time, changePoints []*model.ChangePoint) []*model.ChangePoint {
	res := []*model.ChangePoint{}
	for _, changePoint := range changePoints {
		at := changePoint.TimeValue.Time
		if at.Before(begin) || at.After(end) {
			continue
		}
		res = append(res, changePoint)
	}
	return res
}
