package model

// DegeneracyMask flags samples excluded from percentile computation.
type DegeneracyMask struct {
	Flags []bool
	// AllDegenerate records that every sample was flagged and the mask was reset to keep all of them.
	AllDegenerate bool
}

func NewDegeneracyMask(samples int) DegeneracyMask {
	return DegeneracyMask{Flags: make([]bool, samples)}
}

func (m DegeneracyMask) Len() int {
	return len(m.Flags)
}

func (m DegeneracyMask) Count() int {
	n := 0
	for _, f := range m.Flags {
		if f {
			n++
		}
	}
	return n
}

func (m DegeneracyMask) Excluded(sample int) bool {
	return sample < len(m.Flags) && m.Flags[sample]
}

// ConfidenceBand holds per time step percentiles of an ensemble.
type ConfidenceBand struct {
	Low    []float64
	Median []float64
	High   []float64
	// Percentiles are the percentile ranks (0-100) of Low, Median and High.
	Percentiles [3]float64
}

func (b *ConfidenceBand) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Median)
}

// Slice returns the band restricted to steps [from, to).
func (b *ConfidenceBand) Slice(from, to int) *ConfidenceBand {
	return &ConfidenceBand{
		Low:         b.Low[from:to],
		Median:      b.Median[from:to],
		High:        b.High[from:to],
		Percentiles: b.Percentiles,
	}
}
