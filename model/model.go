package model

import (
	"time"
)

type ChangePointType int

const (
	IncreaseChangePoint ChangePointType = 1
	DecreaseChangePoint ChangePointType = 2
)

func (t ChangePointType) String() string {
	switch t {
	case IncreaseChangePoint:
		return "increase"
	case DecreaseChangePoint:
		return "decrease"
	}
	return "unknown"
}

type ChangePoint struct {
	ChangePointType ChangePointType
	TimeValue       TimeValue
	// Step is the index of the change point in the analysed series.
	Step int
}

type TimeValue struct {
	Time  time.Time
	Value float64
}

type TimeSeries struct {
	// Labels contains label key -> label value, like "source": "deaths.csv"
	Labels map[string]string
	Values []TimeValue
}

func (s *TimeSeries) IsEmpty() bool {
	if s == nil {
		return true
	}
	return len(s.Values) == 0
}

func (s *TimeSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Values)
}

func (s *TimeSeries) Floats() []float64 {
	if s == nil {
		return nil
	}
	res := make([]float64, len(s.Values))
	for i, v := range s.Values {
		res[i] = v.Value
	}
	return res
}

func (s *TimeSeries) Times() []time.Time {
	if s == nil {
		return nil
	}
	res := make([]time.Time, len(s.Values))
	for i, v := range s.Values {
		res[i] = v.Time
	}
	return res
}

// PriorStatistics seeds the change point model.
type PriorStatistics struct {
	Mean     float64 `json:"mean,omitempty"`
	Variance float64 `json:"var,omitempty"`
}

func (d *PriorStatistics) Valid() bool {
	return d != nil && d.Variance > 0
}
