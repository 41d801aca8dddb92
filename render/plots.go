package render

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/lxxca/covid-prevalence-estimate/bocd"
	"github.com/lxxca/covid-prevalence-estimate/common"
	"github.com/lxxca/covid-prevalence-estimate/metrics"
	"github.com/lxxca/covid-prevalence-estimate/model"
	"github.com/lxxca/covid-prevalence-estimate/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// minPrevalenceAxis is the smallest upper limit of the prevalence axis, in percent.
const minPrevalenceAxis = 0.01

func observedLine(p *plot.Plot, style Style, cases *model.TimeSeries) error {
	line, err := addLine(p, dateXYs(cases.Times(), cases.Floats()), dataBlue, style.LineWidth, "new cases data")
	if err != nil {
		return err
	}
	line.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	return nil
}

func finish(ctx context.Context, p *plot.Plot, style Style, out Output, suffix string) (string, error) {
	path, err := out.Path(suffix)
	if err != nil {
		return "", err
	}
	if err := save(p, style, out.Watermark, path); err != nil {
		return "", err
	}
	utils.GetLogger(ctx).Info("plot saved", zap.String("path", path))
	return path, nil
}

// PlotData draws the observed new cases only.
func PlotData(ctx context.Context, out Output, style Style, cases *model.TimeSeries) (string, error) {
	utils.GetLogger(ctx).Info("Plotting Data")
	if cases.IsEmpty() {
		return "", fmt.Errorf("%w: no observed cases", common.ErrorInvalidValue)
	}

	p := newPlot(style, fmt.Sprintf("Model comparison to data %s", out.Population.Name), "Day", "Number of new cases reported")
	dateAxis(p, style)
	if err := observedLine(p, style, cases); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrRender, err)
	}
	return finish(ctx, p, style, out, "data.png")
}

// PlotFit draws every simulated case trajectory, the observed cases and the model median.
func PlotFit(ctx context.Context, out Output, style Style, draws *model.Ensemble, band *metrics.Series, cases *model.TimeSeries) (string, error) {
	utils.GetLogger(ctx).Info("Plotting Fit")
	if draws.Steps() != band.Len() {
		return "", common.ShapeError("fit: %d simulated steps for %d dates", draws.Steps(), band.Len())
	}

	title := fmt.Sprintf("Model comparison to data\n%s, pop. = %.0f", out.Population.Name, out.Population.Size)
	p := newPlot(style, title, "Day", "Number of new cases reported")
	dateAxis(p, style)

	for s := 0; s < draws.Samples(); s++ {
		if _, err := addLine(p, dateXYs(band.Dates, draws.Row(s)), withAlpha(plotutil.Color(s), style.SampleAlpha), vg.Points(0.5), ""); err != nil {
			return "", fmt.Errorf("%w: %v", common.ErrRender, err)
		}
	}
	if !cases.IsEmpty() {
		if err := observedLine(p, style, cases); err != nil {
			return "", fmt.Errorf("%w: %v", common.ErrRender, err)
		}
	}
	if _, err := addLine(p, dateXYs(band.Dates, band.Band.Median), plotutil.Color(1), style.LineWidth*1.5, "new cases model"); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrRender, err)
	}
	return finish(ctx, p, style, out, "fit.png")
}

// PlotSpreadingRate draws the spreading rate band and marks the change points
// that fall inside its date range.
func PlotSpreadingRate(ctx context.Context, out Output, style Style, lambda *metrics.Series, changePoints []*model.ChangePoint) (string, error) {
	if lambda.Len() == 0 {
		return "", fmt.Errorf("%w: empty spreading rate", common.ErrorInvalidValue)
	}
	changePoints = bocd.ChangePointsBetween(lambda.Dates[0], lambda.Dates[lambda.Len()-1], changePoints)
	utils.GetLogger(ctx).Info("Plotting spreading rate", zap.Int("changePoints", len(changePoints)))

	title := fmt.Sprintf("Spreading rate (λ)\n%s, pop. = %.0f", out.Population.Name, out.Population.Size)
	p := newPlot(style, title, "Day", "")
	dateAxis(p, style)
	if err := addBand(p, style, lambda.Dates, lambda.Band, "lambda"); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrRender, err)
	}

	top := floats.Max(lambda.Band.High)
	for i, cp := range changePoints {
		label := ""
		if i == 0 {
			label = "change point"
		}
		if err := verticalLine(p, unix(cp.TimeValue.Time), 0, top, plotutil.Color(2), vg.Points(1), true, label); err != nil {
			return "", fmt.Errorf("%w: %v", common.ErrRender, err)
		}
	}
	return finish(ctx, p, style, out, "lambda.png")
}

func PlotIntroductions(ctx context.Context, out Output, style Style, introductions *metrics.Series) (string, error) {
	utils.GetLogger(ctx).Info("Plotting introductions")

	p := newPlot(style, "Imported infections (E_in)", "Day", "")
	dateAxis(p, style)
	if err := addBand(p, style, introductions.Dates, introductions.Band, "Introduced"); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrRender, err)
	}
	return finish(ctx, p, style, out, "ein.png")
}

// countTicks labels percent ticks with the matching number of infections.
func countTicks(population float64) plot.Ticker {
	return plot.TickerFunc(func(min, max float64) []plot.Tick {
		ticks := plot.DefaultTicks{}.Ticks(min, max)
		for i := range ticks {
			if ticks[i].Label == "" {
				continue
			}
			ticks[i].Label = fmt.Sprintf("%s%% (%d)", ticks[i].Label, int64(population*ticks[i].Value/100))
		}
		return ticks
	})
}

// PlotPrevalence draws the total prevalence band with a marker at now.
func PlotPrevalence(ctx context.Context, out Output, style Style, bands *metrics.PrevalenceBands, now time.Time) (string, error) {
	utils.GetLogger(ctx).Info("Plotting prevalence")
	prevalence := bands.Total

	title := fmt.Sprintf("Prevalence of COVID-19\n%s, pop. %d", out.Population.Name, int64(bands.Population))
	if bands.Mask.AllDegenerate {
		title += " (all samples degenerate)"
	}
	p := newPlot(style, title, "", "Prevalence (%) (# of infections)")
	dateAxis(p, style)
	p.Y.Tick.Marker = countTicks(bands.Population)

	if err := addBand(p, style, prevalence.Dates, prevalence.Band, "Prevalence"); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrRender, err)
	}

	maxY := math.Max(floats.Max(prevalence.Band.Median)*1.05, minPrevalenceAxis)
	p.Y.Min, p.Y.Max = 0, maxY
	if err := verticalLine(p, unix(now), 0, maxY, latestRed, style.LineWidth, false, "Latest data"); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrRender, err)
	}
	return finish(ctx, p, style, out, "prev.png")
}

func PlotRunningIFR(ctx context.Context, out Output, style Style, ifr *metrics.Series) (string, error) {
	utils.GetLogger(ctx).Info("Plotting running IFR")

	p := newPlot(style, fmt.Sprintf("Running Estimate of IFR: %s", out.Population.Name), "Date", "IFR (%)")
	dateAxis(p, style)
	if err := addBand(p, style, ifr.Dates, ifr.Band, "Infected"); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrRender, err)
	}
	return finish(ctx, p, style, out, "running_IFR.png")
}

// PlotIFRDensity draws the estimated density of the final IFR and its credible interval.
func PlotIFRDensity(ctx context.Context, out Output, style Style, dist *metrics.IFRDistribution) (string, error) {
	utils.GetLogger(ctx).Info("Plotting IFR density")
	est := dist.Estimate

	xys := make(plotter.XYs, len(est.Density))
	for i, d := range est.Density {
		xys[i].X, xys[i].Y = d.X, d.Value
	}

	p := newPlot(style, "Estimated IFR", "%", "prob. density")
	line, err := addLine(p, xys, plotutil.Color(0), vg.Points(1), "IFR")
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrRender, err)
	}
	line.FillColor = withAlpha(plotutil.Color(0), style.BandAlpha)

	top := 0.0
	for _, d := range est.Density {
		top = math.Max(top, d.Value)
	}
	interval := []*model.QuantileValue{est.Interval.Lower, est.Interval.Median, est.Interval.Upper}
	for i, q := range interval {
		label := ""
		if i == 1 {
			label = fmt.Sprintf("median %.3g%%", q.Value)
		}
		if err := verticalLine(p, q.Value, 0, top, plotutil.Color(1), vg.Points(1), i != 1, label); err != nil {
			return "", fmt.Errorf("%w: %v", common.ErrRender, err)
		}
	}
	return finish(ctx, p, style, out, "IFR.png")
}
