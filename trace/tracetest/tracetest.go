// Package tracetest builds small deterministic traces for tests.
package tracetest

import (
	"math"
	"time"

	"github.com/lxxca/covid-prevalence-estimate/model"
	"github.com/lxxca/covid-prevalence-estimate/trace"
)

var SimBegin = time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)

type Options struct {
	Samples    int
	Days       int
	Population float64
	// DataOffset is the number of simulated days before the first observation.
	DataOffset int
	// Degenerate lists samples given a negative exposed inflow on one day.
	Degenerate []int
	// ChangeDay is when the spreading rate drops from 0.4 to 0.1.
	ChangeDay int
}

func DefaultOptions() Options {
	return Options{
		Samples:    20,
		Days:       60,
		Population: 100000,
		DataOffset: 5,
		ChangeDay:  25,
	}
}

func fill(samples, days int, fn func(s, t int) float64) *model.Ensemble {
	rows := make([][]float64, samples)
	for s := range rows {
		rows[s] = make([]float64, days)
		for t := range rows[s] {
			rows[s][t] = fn(s, t)
		}
	}
	e, err := model.NewEnsemble(rows)
	if err != nil {
		panic(err)
	}
	return e
}

// Synthetic returns a trace with every variable the plots need.
func Synthetic(opts Options) *trace.Trace {
	n, days := opts.Samples, opts.Days
	degenerate := map[int]bool{}
	for _, s := range opts.Degenerate {
		degenerate[s] = true
	}
	spread := func(s int) float64 { return 1 + 0.01*float64(s) }

	infectious := func(s, t int) float64 { return (50 + 10*float64(t)) * spread(s) }
	ensembles := map[string]*model.Ensemble{
		trace.NewCases: fill(n, days, func(s, t int) float64 { return (10 + float64(t)) * spread(s) }),
		trace.SpreadingRate: fill(n, days, func(s, t int) float64 {
			level := 0.4
			if t >= opts.ChangeDay {
				level = 0.1
			}
			return level + 0.001*math.Sin(float64(s+t))
		}),
		trace.Introductions: fill(n, days, func(s, t int) float64 { return 2 * spread(s) / float64(1+t) }),
		trace.Infectious:    fill(n, days, infectious),
		trace.Exposed:       fill(n, days, func(s, t int) float64 { return (30 + 5*float64(t)) * spread(s) }),
		trace.Asymptomatic:  fill(n, days, func(s, t int) float64 { return 0.4 * infectious(s, t) }),
		trace.Symptomatic:   fill(n, days, func(s, t int) float64 { return 0.6 * infectious(s, t) }),
		trace.NewExposed: fill(n, days, func(s, t int) float64 {
			if degenerate[s] && t == days/2 {
				return -1
			}
			return 5 * spread(s)
		}),
		trace.CumExposed: fill(n, days, func(s, t int) float64 { return (100 + 20*float64(t)) * spread(s) }),
	}

	simEnd := SimBegin.AddDate(0, 0, days-1)
	dataBegin := SimBegin.AddDate(0, 0, opts.DataOffset)
	tr, err := trace.New(opts.Population, dataBegin, simEnd, SimBegin, simEnd, ensembles)
	if err != nil {
		panic(err)
	}
	return tr
}

// Deaths returns cumulative deaths for every observed day of tr.
func Deaths(tr *trace.Trace) *model.TimeSeries {
	series := &model.TimeSeries{Labels: map[string]string{"source": "synthetic"}}
	for i, at := range tr.DataDates() {
		series.Values = append(series.Values, model.TimeValue{Time: at, Value: 0.5 * float64(i)})
	}
	return series
}

// Cases returns observed daily new cases for every observed day of tr.
func Cases(tr *trace.Trace) *model.TimeSeries {
	series := &model.TimeSeries{Labels: map[string]string{"source": "synthetic"}}
	for i, at := range tr.DataDates() {
		series.Values = append(series.Values, model.TimeValue{Time: at, Value: 12 + float64(i)})
	}
	return series
}
