package bocd

import (
	"context"
	"math"
	"sort"

	"github.com/lxxca/covid-prevalence-estimate/common"
	"github.com/lxxca/covid-prevalence-estimate/model"
	"github.com/lxxca/covid-prevalence-estimate/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// madToSigma scales a median absolute deviation to a normal standard deviation.
const madToSigma = 1.4826

// minVariance keeps the likelihood proper on flat series.
const minVariance = 1e-12

// GetNormalStatisticData estimates the prior of a series: the noise variance
// from the median absolute deviation of its first differences, and the mean
// of its first observation window.
func GetNormalStatisticData(ctx context.Context, series *model.TimeSeries, window int) (*model.PriorStatistics, error) {
	logger := utils.GetLogger(ctx)

	values := series.Floats()
	if len(values) < 2 {
		return nil, common.ErrorInvalidValue
	}

	diffs := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		diffs[i-1] = values[i] - values[i-1]
	}
	sort.Float64s(diffs)
	center := stat.Quantile(0.5, stat.Empirical, diffs, nil)
	deviations := make([]float64, len(diffs))
	for i, d := range diffs {
		deviations[i] = math.Abs(d - center)
	}
	sort.Float64s(deviations)
	mad := stat.Quantile(0.5, stat.Empirical, deviations, nil)

	// differences of iid noise have twice its variance
	sigma := madToSigma * mad / math.Sqrt2
	variance := math.Max(sigma*sigma, minVariance)

	head := values[:min(max(window, 1), len(values))]
	res := &model.PriorStatistics{
		Mean:     stat.Mean(head, nil),
		Variance: variance,
	}

	logger.Debug("GetNormalStatisticData success", zap.Any("prior", res))
	return res, nil
}

// Detect runs the online checker over the whole series and returns every confirmed change point.
func Detect(ctx context.Context, series *model.TimeSeries, opts ...CheckerOption) ([]*model.ChangePoint, error) {
	logger := utils.GetLogger(ctx)

	probe := NewBocdOnlineChecker(model.PriorStatistics{Variance: 1}, opts...)
	prior, err := GetNormalStatisticData(ctx, series, probe.window)
	if err != nil {
		logger.Error("GetNormalStatisticData failed", zap.Error(err))
		return nil, err
	}

	checker := NewBocdOnlineChecker(*prior, opts...)
	for _, timeValue := range series.Values {
		if changePoint, found := checker.AppendPoint(timeValue); found {
			logger.Info("find new change point",
				zap.Time("time", changePoint.TimeValue.Time),
				zap.Stringer("type", changePoint.ChangePointType))
		}
	}

	changePoints := checker.GetChangePoints()
	logger.Info("change point detection finished",
		zap.Int("points", series.Len()), zap.Int("changePoints", len(changePoints)))
	return changePoints, nil
}
