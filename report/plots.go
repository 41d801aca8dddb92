package report

import (
	"context"
	"sync"
	"time"

	"github.com/lxxca/covid-prevalence-estimate/bocd"
	"github.com/lxxca/covid-prevalence-estimate/config"
	"github.com/lxxca/covid-prevalence-estimate/metrics"
	"github.com/lxxca/covid-prevalence-estimate/model"
	"github.com/lxxca/covid-prevalence-estimate/render"
	"github.com/lxxca/covid-prevalence-estimate/trace"
	"github.com/lxxca/covid-prevalence-estimate/utils"
)

// Output builds the render destination for cfg, taking the population size
// from the trace unless cfg overrides it.
func Output(tr *trace.Trace, cfg *config.Config) render.Output {
	pop := cfg.Population
	if pop.Size == 0 {
		pop.Size = tr.Population
	}
	return render.Output{
		Root:       cfg.Root,
		Population: pop,
		Watermark: render.Watermark{
			ShowPreliminary: cfg.ShowPreliminary,
			ShowWatermark:   cfg.ShowWatermark,
			Text:            cfg.Watermark,
		},
	}
}

// Plots returns the standard jobs for one trace. The IFR jobs are left out
// when no deaths are given.
func Plots(ctx context.Context, tr *trace.Trace, cases, deaths *model.TimeSeries, cfg *config.Config) ([]Job, error) {
	now, err := cfg.NowTime(time.Now())
	if err != nil {
		return nil, err
	}
	out := Output(tr, cfg)
	style := render.DefaultStyle()

	caseBand := func(ctx context.Context) (*metrics.Series, error) {
		return metrics.CaseBand(ctx, tr)
	}
	// prev and the band export share one computation
	var (
		prevOnce sync.Once
		prev     *metrics.PrevalenceBands
		prevErr  error
	)
	prevalence := func(ctx context.Context) (*metrics.PrevalenceBands, error) {
		prevOnce.Do(func() {
			prev, prevErr = metrics.Prevalence(ctx, tr)
		})
		return prev, prevErr
	}

	jobs := []Job{
		{Name: "data", Run: func(ctx context.Context) (string, error) {
			return render.PlotData(ctx, out, style, cases)
		}},
		{Name: "fit", Run: func(ctx context.Context) (string, error) {
			draws, err := metrics.CaseDraws(tr)
			if err != nil {
				return "", err
			}
			band, err := caseBand(ctx)
			if err != nil {
				return "", err
			}
			return render.PlotFit(ctx, out, style, draws, band, cases)
		}},
		{Name: "lambda", Run: func(ctx context.Context) (string, error) {
			lambda, err := metrics.SpreadingRateBand(ctx, tr)
			if err != nil {
				return "", err
			}
			changePoints, err := bocd.Detect(ctx, lambda.MedianSeries())
			if err != nil {
				return "", err
			}
			return render.PlotSpreadingRate(ctx, out, style, lambda, changePoints)
		}},
		{Name: "ein", Run: func(ctx context.Context) (string, error) {
			ein, err := metrics.IntroductionBand(ctx, tr)
			if err != nil {
				return "", err
			}
			return render.PlotIntroductions(ctx, out, style, ein)
		}},
		{Name: "prev", Run: func(ctx context.Context) (string, error) {
			bands, err := prevalence(ctx)
			if err != nil {
				return "", err
			}
			return render.PlotPrevalence(ctx, out, render.PrevalenceStyle(), bands, now)
		}},
		{Name: "prev_bands", Run: func(ctx context.Context) (string, error) {
			bands, err := prevalence(ctx)
			if err != nil {
				return "", err
			}
			return render.WriteBands(ctx, out, "prev_bands.csv", bands.All()...)
		}},
	}

	if deaths.IsEmpty() {
		utils.GetLogger(ctx).Info("no deaths given, skipping IFR plots")
		return jobs, nil
	}
	jobs = append(jobs,
		Job{Name: "running_IFR", Run: func(ctx context.Context) (string, error) {
			ifr, err := metrics.RunningIFR(ctx, tr, deaths, cfg.TrimStart)
			if err != nil {
				return "", err
			}
			return render.PlotRunningIFR(ctx, out, style, ifr)
		}},
		Job{Name: "IFR", Run: func(ctx context.Context) (string, error) {
			dist, err := metrics.FinalIFR(ctx, tr, deaths)
			if err != nil {
				return "", err
			}
			return render.PlotIFRDensity(ctx, out, style, dist)
		}},
	)
	return jobs, nil
}
