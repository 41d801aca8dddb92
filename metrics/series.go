package metrics

import (
	"time"

	"github.com/lxxca/covid-prevalence-estimate/common"
	"github.com/lxxca/covid-prevalence-estimate/model"
)

// Series is a confidence band aligned to its dates.
type Series struct {
	Name  string
	Dates []time.Time
	Band  *model.ConfidenceBand
}

func NewSeries(name string, dates []time.Time, band *model.ConfidenceBand) (*Series, error) {
	if len(dates) != band.Len() {
		return nil, common.ShapeError("%s: %d dates for %d steps", name, len(dates), band.Len())
	}
	return &Series{Name: name, Dates: dates, Band: band}, nil
}

func (s *Series) Len() int {
	return len(s.Dates)
}

// Slice keeps steps [from, to).
func (s *Series) Slice(from, to int) (*Series, error) {
	if from < 0 || to > s.Len() || from >= to {
		return nil, common.ShapeError("%s: slice [%d, %d) of %d steps", s.Name, from, to, s.Len())
	}
	return &Series{Name: s.Name, Dates: s.Dates[from:to], Band: s.Band.Slice(from, to)}, nil
}

// MedianSeries returns the median line as a time series.
func (s *Series) MedianSeries() *model.TimeSeries {
	res := &model.TimeSeries{
		Labels: map[string]string{"series": s.Name},
		Values: make([]model.TimeValue, s.Len()),
	}
	for i, at := range s.Dates {
		res.Values[i] = model.TimeValue{Time: at, Value: s.Band.Median[i]}
	}
	return res
}
