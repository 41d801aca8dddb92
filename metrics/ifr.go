package metrics

import (
	"context"
	"fmt"

	"github.com/lxxca/covid-prevalence-estimate/common"
	"github.com/lxxca/covid-prevalence-estimate/kde"
	"github.com/lxxca/covid-prevalence-estimate/model"
	"github.com/lxxca/covid-prevalence-estimate/summary"
	"github.com/lxxca/covid-prevalence-estimate/trace"
	"github.com/lxxca/covid-prevalence-estimate/utils"
	"go.uber.org/zap"
)

// DefaultTrimStart drops the first days of the running IFR, where few
// infections make the ratio meaningless.
const DefaultTrimStart = 14

// ifrEnsemble returns 100 * deaths[t] / Ecum_t[s, t] with Ecum_t aligned to the dates of deaths.
func ifrEnsemble(tr *trace.Trace, deaths *model.TimeSeries) (*model.Ensemble, error) {
	if deaths.IsEmpty() {
		return nil, fmt.Errorf("%w: no observed deaths", common.ErrorInvalidValue)
	}
	times := deaths.Times()
	begin, end := times[0], times[len(times)-1]
	if span := utils.DayCntBetween(begin, end) + 1; span != len(times) {
		return nil, common.ShapeError("deaths: %d values over %d days", len(times), span)
	}

	cumExposed, _, err := tr.EnsembleByDate(trace.CumExposed, begin, end)
	if err != nil {
		return nil, err
	}
	cumDeaths := deaths.Floats()
	return cumExposed.Apply(func(_, step int, v float64) float64 {
		return 100 * cumDeaths[step] / v
	}), nil
}

// RunningIFR summarizes the infection fatality ratio over time, dropping the
// first trimStart days and the last day.
func RunningIFR(ctx context.Context, tr *trace.Trace, deaths *model.TimeSeries, trimStart int) (*Series, error) {
	logger := utils.GetLogger(ctx)

	ratio, err := ifrEnsemble(tr, deaths)
	if err != nil {
		return nil, err
	}
	band, err := summary.Summarize(ratio, model.DegeneracyMask{})
	if err != nil {
		logger.Error("summarize failed", zap.String("series", RunningIFRName), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", RunningIFRName, err)
	}
	series, err := NewSeries(RunningIFRName, deaths.Times(), band)
	if err != nil {
		return nil, err
	}
	if trimStart < 0 {
		trimStart = 0
	}
	return series.Slice(trimStart, series.Len()-1)
}

// IFRDistribution is the posterior IFR on the last observed day.
type IFRDistribution struct {
	Values   []float64
	Estimate *kde.Estimate
}

func FinalIFR(ctx context.Context, tr *trace.Trace, deaths *model.TimeSeries) (*IFRDistribution, error) {
	ratio, err := ifrEnsemble(tr, deaths)
	if err != nil {
		return nil, err
	}
	values := ratio.Column(ratio.Steps() - 1)
	est, err := kde.EstimateDistribution(ctx, values, kde.EstimateOptions{})
	if err != nil {
		return nil, fmt.Errorf("final IFR: %w", err)
	}
	return &IFRDistribution{Values: values, Estimate: est}, nil
}
