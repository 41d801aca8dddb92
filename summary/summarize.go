package summary

import (
	"fmt"
	"math"

	"github.com/lxxca/covid-prevalence-estimate/common"
	"github.com/lxxca/covid-prevalence-estimate/model"
)

// DefaultPercentiles are the low, median and high ranks of a 95% band.
var DefaultPercentiles = [3]float64{2.5, 50, 97.5}

type options struct {
	scale       float64
	floorAtZero bool
	percentiles [3]float64
}

// Option configures Summarize.
type Option func(*options)

// WithScale multiplies every value before the percentiles are taken, e.g. 100/N
// to turn counts into percent of population.
func WithScale(k float64) Option {
	return func(o *options) {
		o.scale = k
	}
}

// WithFloorAtZero clamps low, median and high independently at zero.
func WithFloorAtZero(floor bool) Option {
	return func(o *options) {
		o.floorAtZero = floor
	}
}

// WithPercentiles replaces DefaultPercentiles. Summarize rejects ranks
// outside [0, 100] or not in ascending order.
func WithPercentiles(low, median, high float64) Option {
	return func(o *options) {
		o.percentiles = [3]float64{low, median, high}
	}
}

// Summarize reduces ens to a confidence band over the samples not excluded by
// mask. A nil mask (zero Flags) keeps every sample. NaN values are skipped at
// the step they occur in.
func Summarize(ens *model.Ensemble, mask model.DegeneracyMask, opts ...Option) (*model.ConfidenceBand, error) {
	o := options{
		scale:       1.0,
		floorAtZero: true,
		percentiles: DefaultPercentiles,
	}
	for _, opt := range opts {
		opt(&o)
	}
	for _, p := range o.percentiles {
		if !(0 <= p && p <= 100) {
			return nil, fmt.Errorf("%w: percentile %v", common.ErrorInvalidValue, p)
		}
	}
	if lo, mid, hi := o.percentiles[0], o.percentiles[1], o.percentiles[2]; !(lo <= mid && mid <= hi) {
		return nil, fmt.Errorf("%w: percentiles %v not ascending", common.ErrorInvalidValue, o.percentiles)
	}

	samples, steps := ens.Dims()
	if mask.Flags != nil && mask.Len() != samples {
		return nil, common.ShapeError("mask has %d samples, ensemble has %d", mask.Len(), samples)
	}

	band := &model.ConfidenceBand{
		Low:         make([]float64, steps),
		Median:      make([]float64, steps),
		High:        make([]float64, steps),
		Percentiles: o.percentiles,
	}

	values := make([]float64, 0, samples)
	for t := 0; t < steps; t++ {
		values = values[:0]
		for s := 0; s < samples; s++ {
			if mask.Excluded(s) {
				continue
			}
			v := ens.At(s, t) * o.scale
			if math.IsNaN(v) {
				continue
			}
			values = append(values, v)
		}
		if len(values) == 0 {
			return nil, &common.StepError{Step: t, Wrapped: common.ErrEmptySampleSet}
		}

		ps := Percentiles(values, o.percentiles[:]...)
		if o.floorAtZero {
			for i := range ps {
				ps[i] = math.Max(ps[i], 0)
			}
		}
		band.Low[t], band.Median[t], band.High[t] = ps[0], ps[1], ps[2]
	}
	return band, nil
}
