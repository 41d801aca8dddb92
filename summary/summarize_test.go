package summary

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/lxxca/covid-prevalence-estimate/common"
	"github.com/lxxca/covid-prevalence-estimate/model"
	"github.com/lxxca/covid-prevalence-estimate/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func mustEnsemble(t *testing.T, rows [][]float64) *model.Ensemble {
	t.Helper()
	e, err := model.NewEnsemble(rows)
	require.NoError(t, err)
	return e
}

func observedContext() (context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return utils.WithLogger(context.Background(), zap.New(core)), logs
}

func randomEnsemble(rng *rand.Rand, samples, steps int) [][]float64 {
	rows := make([][]float64, samples)
	for s := range rows {
		rows[s] = make([]float64, steps)
		for t := range rows[s] {
			rows[s][t] = rng.NormFloat64()*10 + 3
		}
	}
	return rows
}

func TestComputeMask(t *testing.T) {
	ctx, logs := observedContext()
	ratio := mustEnsemble(t, [][]float64{{0.1, 0.1}, {0.1, 0.1}, {-0.5, -0.5}})

	mask := ComputeMask(ctx, ratio)
	assert.Equal(t, []bool{false, false, true}, mask.Flags)
	assert.False(t, mask.AllDegenerate)
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestComputeMaskSingleNegativeFlagsWholeSample(t *testing.T) {
	ratio := mustEnsemble(t, [][]float64{{0.1, 0.2, -0.01, 0.3}, {0.1, 0.2, 0.3, 0.4}})
	mask := ComputeMask(context.Background(), ratio)
	assert.Equal(t, []bool{true, false}, mask.Flags)
}

func TestComputeMaskAllDegenerate(t *testing.T) {
	ctx, logs := observedContext()
	ratio := mustEnsemble(t, [][]float64{{-0.1, 0.1}, {0.1, -0.1}, {-0.5, -0.5}})

	mask := ComputeMask(ctx, ratio)
	assert.Equal(t, []bool{false, false, false}, mask.Flags)
	assert.True(t, mask.AllDegenerate)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestComputeMaskNonFinite(t *testing.T) {
	ratio := mustEnsemble(t, [][]float64{{math.NaN(), 0.1}, {math.Inf(-1), 0.1}, {math.Inf(1), 0.2}})
	mask := ComputeMask(context.Background(), ratio)
	assert.Equal(t, []bool{false, true, false}, mask.Flags)
}

func TestSummarizeScenario(t *testing.T) {
	values := mustEnsemble(t, [][]float64{{1, 2}, {3, 4}, {-1, -2}})
	ratio := mustEnsemble(t, [][]float64{{0.1, 0.1}, {0.1, 0.1}, {-0.5, -0.5}})
	mask := ComputeMask(context.Background(), ratio)

	band, err := Summarize(values, mask)
	require.NoError(t, err)
	require.Equal(t, 2, band.Len())

	// linear interpolation over [1, 3]
	assert.InDelta(t, 1.05, band.Low[0], 1e-12)
	assert.InDelta(t, 2.0, band.Median[0], 1e-12)
	assert.InDelta(t, 2.95, band.High[0], 1e-12)

	assert.InDelta(t, 2.05, band.Low[1], 1e-12)
	assert.InDelta(t, 3.0, band.Median[1], 1e-12)
	assert.InDelta(t, 3.95, band.High[1], 1e-12)
	assert.Equal(t, DefaultPercentiles, band.Percentiles)
}

func TestSummarizeAllDegenerateUsesEverySample(t *testing.T) {
	ctx, logs := observedContext()
	values := mustEnsemble(t, [][]float64{{1}, {3}, {5}})
	ratio := mustEnsemble(t, [][]float64{{-1}, {-1}, {-1}})

	mask := ComputeMask(ctx, ratio)
	band, err := Summarize(values, mask)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, band.Median[0], 1e-12)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestSummarizeFloorAtZero(t *testing.T) {
	values := mustEnsemble(t, [][]float64{{-5, -1}, {-4, 2}, {-3, 3}})

	band, err := Summarize(values, model.DegeneracyMask{})
	require.NoError(t, err)
	for i := 0; i < band.Len(); i++ {
		assert.GreaterOrEqual(t, band.Low[i], 0.0)
		assert.GreaterOrEqual(t, band.Median[i], 0.0)
		assert.GreaterOrEqual(t, band.High[i], 0.0)
	}
	assert.Zero(t, band.High[0])
	assert.Zero(t, band.Low[1])
	assert.Greater(t, band.Median[1], 0.0)

	raw, err := Summarize(values, model.DegeneracyMask{}, WithFloorAtZero(false))
	require.NoError(t, err)
	assert.Less(t, raw.Low[0], 0.0)
}

func TestSummarizeEmptySampleSet(t *testing.T) {
	values := mustEnsemble(t, [][]float64{{1, 2}, {3, 4}})
	mask := model.DegeneracyMask{Flags: []bool{true, true}}

	_, err := Summarize(values, mask)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrEmptySampleSet)

	var stepErr *common.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, 0, stepErr.Step)

	nan := mustEnsemble(t, [][]float64{{1, math.NaN()}})
	_, err = Summarize(nan, model.DegeneracyMask{})
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, 1, stepErr.Step)
}

func TestSummarizeMaskLength(t *testing.T) {
	values := mustEnsemble(t, [][]float64{{1, 2}, {3, 4}})
	_, err := Summarize(values, model.NewDegeneracyMask(3))
	assert.ErrorIs(t, err, common.ErrShapeMismatch)
}

func TestSummarizeProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 20; i++ {
		samples, steps := 1+rng.Intn(40), 1+rng.Intn(30)
		values := mustEnsemble(t, randomEnsemble(rng, samples, steps))
		mask := model.NewDegeneracyMask(samples)
		for s := 1; s < samples; s++ {
			mask.Flags[s] = rng.Intn(3) == 0
		}

		band, err := Summarize(values, mask)
		require.NoError(t, err)
		require.Len(t, band.Low, steps)
		require.Len(t, band.Median, steps)
		require.Len(t, band.High, steps)
		for step := 0; step < steps; step++ {
			assert.LessOrEqual(t, band.Low[step], band.Median[step])
			assert.LessOrEqual(t, band.Median[step], band.High[step])
			assert.GreaterOrEqual(t, band.Low[step], 0.0)
		}

		again, err := Summarize(values, mask)
		require.NoError(t, err)
		assert.Equal(t, band, again)
	}
}

func TestSummarizeScaleLinearity(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	values := mustEnsemble(t, randomEnsemble(rng, 25, 12))
	mask := model.DegeneracyMask{}

	base, err := Summarize(values, mask, WithFloorAtZero(false))
	require.NoError(t, err)

	for _, k := range []float64{0.5, 2, 100.0 / 37000} {
		scaled, err := Summarize(values, mask, WithScale(k), WithFloorAtZero(false))
		require.NoError(t, err)
		for step := 0; step < base.Len(); step++ {
			assert.InDelta(t, k*base.Low[step], scaled.Low[step], 1e-9)
			assert.InDelta(t, k*base.Median[step], scaled.Median[step], 1e-9)
			assert.InDelta(t, k*base.High[step], scaled.High[step], 1e-9)
		}
	}
}

func TestSummarizeCustomPercentiles(t *testing.T) {
	values := mustEnsemble(t, [][]float64{{0}, {10}, {20}, {30}, {40}})

	band, err := Summarize(values, model.DegeneracyMask{}, WithPercentiles(0, 50, 100))
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, band.Low)
	assert.Equal(t, []float64{20}, band.Median)
	assert.Equal(t, []float64{40}, band.High)

	_, err = Summarize(values, model.DegeneracyMask{}, WithPercentiles(-1, 50, 100))
	assert.ErrorIs(t, err, common.ErrorInvalidValue)

	_, err = Summarize(values, model.DegeneracyMask{}, WithPercentiles(97.5, 50, 2.5))
	assert.ErrorIs(t, err, common.ErrorInvalidValue)
	_, err = Summarize(values, model.DegeneracyMask{}, WithPercentiles(10, 5, 90))
	assert.ErrorIs(t, err, common.ErrorInvalidValue)
}

func TestSummarizeInfiniteValues(t *testing.T) {
	inf := math.Inf(1)

	band, err := Summarize(mustEnsemble(t, [][]float64{{1}, {inf}, {inf}}), model.DegeneracyMask{})
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, band.Low)
	assert.Equal(t, []float64{inf}, band.Median)
	assert.Equal(t, []float64{inf}, band.High)

	band, err = Summarize(mustEnsemble(t, [][]float64{{-inf}, {2}, {inf}}), model.DegeneracyMask{},
		WithFloorAtZero(false))
	require.NoError(t, err)
	assert.True(t, math.IsInf(band.Low[0], -1))
	assert.Equal(t, 2.0, band.Median[0])
	assert.True(t, math.IsInf(band.High[0], 1))

	// floored bounds stay ordered and non-negative
	band, err = Summarize(mustEnsemble(t, [][]float64{{-inf}, {inf}, {inf}, {3}}), model.DegeneracyMask{})
	require.NoError(t, err)
	for _, v := range []float64{band.Low[0], band.Median[0], band.High[0]} {
		assert.False(t, math.IsNaN(v))
		assert.GreaterOrEqual(t, v, 0.0)
	}
	assert.LessOrEqual(t, band.Low[0], band.Median[0])
	assert.LessOrEqual(t, band.Median[0], band.High[0])
}

func TestPercentiles(t *testing.T) {
	values := []float64{3, 1, 2, 4}
	assert.InDelta(t, 2.5, Percentile(values, 50), 1e-12)
	assert.InDelta(t, 1.75, Percentile(values, 25), 1e-12)
	assert.Equal(t, []float64{3, 1, 2, 4}, values, "input must not be sorted in place")

	assert.True(t, math.IsNaN(Percentile(nil, 50)))
	assert.True(t, math.IsNaN(Percentile(values, 101)))
	assert.Equal(t, 7.0, Percentile([]float64{7}, 97.5))

	inf := math.Inf(1)
	assert.Equal(t, inf, Percentile([]float64{1, inf, inf}, 97.5))
	assert.Equal(t, 1.0, Percentile([]float64{1, inf, inf}, 2.5))
	assert.Equal(t, inf, Percentile([]float64{1, inf, inf}, 40))
	assert.Equal(t, -inf, Percentile([]float64{-inf, inf}, 25))
	assert.Equal(t, inf, Percentile([]float64{-inf, inf}, 75))
}
