package model

type Clip struct {
	Lower float64
	Upper float64
}

type Density struct {
	X     float64
	Value float64
}

type Cdf struct {
	X     float64
	Value float64
}

type QuantileValue struct {
	Value    float64 `json:"v,omitempty"`
	Quantile float64 `json:"q,omitempty"`
}

type ConfidenceInterval struct {
	Lower  *QuantileValue `json:"l,omitempty"`
	Median *QuantileValue `json:"m,omitempty"`
	Upper  *QuantileValue `json:"u,omitempty"`
}
