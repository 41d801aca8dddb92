package kde

import (
	"context"
	"fmt"
	"math"

	"github.com/lxxca/covid-prevalence-estimate/common"
	"github.com/lxxca/covid-prevalence-estimate/model"
	"github.com/lxxca/covid-prevalence-estimate/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Estimate is a fitted distribution of a scalar posterior quantity.
type Estimate struct {
	Density   []model.Density
	BandWidth float64
	Interval  model.ConfidenceInterval
	// Points is the number of finite values the density was fitted on.
	Points int
	// Dropped counts non-finite and clipped values.
	Dropped int
}

type EstimateOptions struct {
	// ClipOutliers drops values further than ClipZScore standard deviations from the mean.
	ClipOutliers bool
	BwAdjust     float64
}

// EstimateDistribution fits a Gaussian KDE to values and reads the credible
// interval off its CDF. Non-finite values are ignored.
func EstimateDistribution(ctx context.Context, values []float64, opts EstimateOptions) (res *Estimate, err error) {
	logger := utils.GetLogger(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("EstimateDistribution recover panic error!", zap.Any("err", r),
				zap.String("panic info", utils.GetPanicInfo()), zap.Int("values", len(values)))
			res, err = nil, fmt.Errorf("%w: density estimation panicked: %v", common.ErrorInvalidValue, r)
		}
	}()

	finite := Finite(values)
	if len(finite) < MinCalculatePointCnt {
		logger.Error("point too little, skip calculate", zap.Int("cnt", len(finite)), zap.Int("total", len(values)))
		return nil, common.ErrorInvalidValue
	}

	var clip *model.Clip
	if opts.ClipOutliers {
		mean, stddev := stat.MeanStdDev(finite, nil)
		clip = &model.Clip{
			Upper: mean + stddev*ClipZScore,
			Lower: math.Max(mean-stddev*ClipZScore, 0),
		}
	}

	k, err := NewKDEUnivariate(finite, nil, opts.BwAdjust, DefaultCut, clip)
	if err != nil {
		logger.Error("NewKDEUnivariate failed", zap.Error(err))
		return nil, err
	}

	density, bw := k.Kdensity()

	quantiles := make([]*model.QuantileValue, len(CredibleQuantiles))
	for i, q := range CredibleQuantiles {
		quantile, err := k.Quantile(q)
		if err != nil {
			logger.Error("kde Quantile failed", zap.Error(err), zap.Float64("quantile", q))
			return nil, err
		}
		quantile.Value = utils.FormatFloat(quantile.Value, 4)
		quantiles[i] = quantile
	}

	return &Estimate{
		Density:   density,
		BandWidth: bw,
		Interval: model.ConfidenceInterval{
			Lower:  quantiles[0],
			Median: quantiles[1],
			Upper:  quantiles[2],
		},
		Points:  len(k.Endog),
		Dropped: len(values) - len(k.Endog),
	}, nil
}
