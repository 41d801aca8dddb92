package metrics

import (
	"context"
	"fmt"

	"github.com/lxxca/covid-prevalence-estimate/common"
	"github.com/lxxca/covid-prevalence-estimate/model"
	"github.com/lxxca/covid-prevalence-estimate/summary"
	"github.com/lxxca/covid-prevalence-estimate/trace"
	"github.com/lxxca/covid-prevalence-estimate/utils"
	"go.uber.org/zap"
)

// PrevalenceBands are the prevalence related bands, all filtered by the same degeneracy mask.
type PrevalenceBands struct {
	Mask model.DegeneracyMask
	// Population is N, used to convert percentages back to counts.
	Population float64

	// Infectious is I_t in percent of the population.
	Infectious *Series
	// Total is I_t + E_t in percent of the population.
	Total *Series
	// Asymptomatic and Symptomatic are absolute counts.
	Asymptomatic *Series
	Symptomatic  *Series
	// AttackRate is 100 * I_t / N * lambda_t.
	AttackRate *Series
}

func (p *PrevalenceBands) All() []*Series {
	return []*Series{p.Infectious, p.Total, p.Asymptomatic, p.Symptomatic, p.AttackRate}
}

// DegeneracyMask flags samples whose exposed compartment has a negative inflow ratio.
func DegeneracyMask(ctx context.Context, tr *trace.Trace) (model.DegeneracyMask, error) {
	exposed, err := simulation(tr, trace.Exposed)
	if err != nil {
		return model.DegeneracyMask{}, err
	}
	newExposed, err := simulation(tr, trace.NewExposed)
	if err != nil {
		return model.DegeneracyMask{}, err
	}
	ratio, err := newExposed.DivElem(exposed)
	if err != nil {
		return model.DegeneracyMask{}, fmt.Errorf("%s/%s: %w", trace.NewExposed, trace.Exposed, err)
	}
	return summary.ComputeMask(ctx, ratio), nil
}

// Prevalence computes every prevalence band of the trace.
func Prevalence(ctx context.Context, tr *trace.Trace) (*PrevalenceBands, error) {
	logger := utils.GetLogger(ctx)
	logger.Info("computing prevalence bands")

	N := tr.Population
	if !(N > 0) {
		return nil, fmt.Errorf("%w: population %v", common.ErrorInvalidValue, N)
	}

	mask, err := DegeneracyMask(ctx, tr)
	if err != nil {
		return nil, err
	}

	variables := map[string]*model.Ensemble{}
	for _, name := range []string{trace.Infectious, trace.Exposed, trace.Asymptomatic, trace.Symptomatic, trace.SpreadingRate} {
		e, err := simulation(tr, name)
		if err != nil {
			return nil, err
		}
		variables[name] = e
	}

	infectious := variables[trace.Infectious]
	total, err := infectious.Add(variables[trace.Exposed])
	if err != nil {
		return nil, fmt.Errorf("%s+%s: %w", trace.Infectious, trace.Exposed, err)
	}
	attackRate, err := infectious.Scale(100 / N).MulElem(variables[trace.SpreadingRate])
	if err != nil {
		return nil, fmt.Errorf("%s*%s: %w", trace.Infectious, trace.SpreadingRate, err)
	}

	dates := tr.SimDates()
	res := &PrevalenceBands{Mask: mask, Population: N}

	targets := []struct {
		name  string
		ens   *model.Ensemble
		scale float64
		dst   **Series
	}{
		{InfectiousName, infectious, 100 / N, &res.Infectious},
		{PrevalenceName, total, 100 / N, &res.Total},
		{AsymptomaticName, variables[trace.Asymptomatic], 1, &res.Asymptomatic},
		{SymptomaticName, variables[trace.Symptomatic], 1, &res.Symptomatic},
		{AttackRateName, attackRate, 1, &res.AttackRate},
	}
	for _, target := range targets {
		band, err := summary.Summarize(target.ens, mask, summary.WithScale(target.scale))
		if err != nil {
			logger.Error("summarize failed", zap.String("series", target.name), zap.Error(err))
			return nil, fmt.Errorf("%s: %w", target.name, err)
		}
		series, err := NewSeries(target.name, dates, band)
		if err != nil {
			return nil, err
		}
		*target.dst = series
	}

	logger.Info("prevalence bands computed",
		zap.Int("samples", mask.Len()), zap.Int("degenerate", mask.Count()),
		zap.Bool("allDegenerate", mask.AllDegenerate))
	return res, nil
}
