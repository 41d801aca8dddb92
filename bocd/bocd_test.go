package bocd

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/lxxca/covid-prevalence-estimate/common"
	"github.com/lxxca/covid-prevalence-estimate/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)

func stepSeries(levels []float64, each int, noise float64) *model.TimeSeries {
	rng := rand.New(rand.NewSource(3))
	series := &model.TimeSeries{}
	for i, level := range levels {
		for j := 0; j < each; j++ {
			step := i*each + j
			series.Values = append(series.Values, model.TimeValue{
				Time:  start.AddDate(0, 0, step),
				Value: level + rng.NormFloat64()*noise,
			})
		}
	}
	return series
}

func TestDetectStepChange(t *testing.T) {
	series := stepSeries([]float64{0.4, 0.1}, 40, 0.005)

	changePoints, err := Detect(context.Background(), series)
	require.NoError(t, err)
	require.NotEmpty(t, changePoints)

	first := changePoints[0]
	assert.InDelta(t, 40, first.Step, 2)
	assert.Equal(t, model.DecreaseChangePoint, first.ChangePointType)
	assert.Equal(t, "decrease", first.ChangePointType.String())
}

func TestDetectFlatSeries(t *testing.T) {
	series := stepSeries([]float64{0.3}, 60, 0.01)

	changePoints, err := Detect(context.Background(), series)
	require.NoError(t, err)
	assert.Empty(t, changePoints)
}

func TestDetectOptions(t *testing.T) {
	series := stepSeries([]float64{0.4, 0.1}, 40, 0.005)

	changePoints, err := Detect(context.Background(), series, WithThreshold(1.5))
	require.NoError(t, err)
	assert.Empty(t, changePoints)

	changePoints, err = Detect(context.Background(), series, WithHazard(0.01), WithObserveWindow(8))
	require.NoError(t, err)
	require.NotEmpty(t, changePoints)
	assert.InDelta(t, 40, changePoints[0].Step, 2)
}

func TestDetectTooShort(t *testing.T) {
	_, err := Detect(context.Background(), stepSeries([]float64{1}, 1, 0))
	assert.ErrorIs(t, err, common.ErrorInvalidValue)
}

func TestGetNormalStatisticData(t *testing.T) {
	series := stepSeries([]float64{2}, 200, 0.5)

	prior, err := GetNormalStatisticData(context.Background(), series, 10)
	require.NoError(t, err)
	assert.True(t, prior.Valid())
	assert.InDelta(t, 2, prior.Mean, 0.5)
	assert.InDelta(t, 0.25, prior.Variance, 0.1)
}

func TestGetNormalStatisticDataIgnoresStep(t *testing.T) {
	series := stepSeries([]float64{0.4, 0.1}, 40, 0.005)

	prior, err := GetNormalStatisticData(context.Background(), series, 5)
	require.NoError(t, err)
	// a plain variance of the differences would be dominated by the 0.3 drop
	assert.Less(t, prior.Variance, 1e-4)
	assert.InDelta(t, 0.4, prior.Mean, 0.01)
}

func TestLogSumExp(t *testing.T) {
	assert.InDelta(t, math.Log(3), LogSumExp([]float64{0, 0, 0}), 1e-12)
	assert.True(t, math.IsInf(LogSumExp([]float64{math.Inf(-1)}), -1))

	normalized := ListExp(NormalizeData([]float64{math.Log(1), math.Log(3)}))
	assert.InDelta(t, 0.25, normalized[0], 1e-12)
	assert.InDelta(t, 0.75, normalized[1], 1e-12)
}

func TestChangePointsBetween(t *testing.T) {
	points := []*model.ChangePoint{
		{TimeValue: model.TimeValue{Time: start}},
		{TimeValue: model.TimeValue{Time: start.AddDate(0, 0, 10)}},
	}
	res := ChangePointsBetween(start.AddDate(0, 0, 1), start.AddDate(0, 0, 20), points)
	require.Len(t, res, 1)
	assert.Equal(t, start.AddDate(0, 0, 10), res[0].TimeValue.Time)
}
