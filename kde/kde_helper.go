package kde

import (
	"sort"

	"github.com/lxxca/covid-prevalence-estimate/common"
	"github.com/lxxca/covid-prevalence-estimate/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
)

// KDEUnivariate is a weighted univariate kernel density estimate on a
// non-negative support.
type KDEUnivariate struct {
	Weights []float64

	// max(len(Endog), MinGridSize)
	gridSize int

	// An adjustment factor for the bw. Bandwidth becomes bw * adjust.
	bwAdjust float64

	// Defines the length of the grid past the lowest and highest values
	// of x so that the kernel goes to zero. The end points are
	// ``max(min(x) - 1.5 * cut * bw, 0)`` and ``max(x) + cut * bw``.
	cut float64

	// Endog holds the sorted observations.
	Endog []float64

	density []model.Density
	cdf     []model.Cdf
	grid    []float64
	bw      float64
	fitted  bool
	kernel  *GaussianKernel
}

type weightedPoints struct {
	x, w []float64
}

func (p weightedPoints) Len() int           { return len(p.x) }
func (p weightedPoints) Less(i, j int) bool { return p.x[i] < p.x[j] }
func (p weightedPoints) Swap(i, j int) {
	p.x[i], p.x[j] = p.x[j], p.x[i]
	p.w[i], p.w[j] = p.w[j], p.w[i]
}

// NewKDEUnivariate copies endog and weights; a nil weights slice means equal weights.
func NewKDEUnivariate(endog []float64, weights []float64,
	bwAdjust float64, cut float64, clip *model.Clip) (*KDEUnivariate, error) {
	if len(endog) == 0 {
		return nil, common.ErrorInvalidValue
	}

	if len(weights) == 0 {
		weights = InitOnes(len(endog))
	} else if len(weights) != len(endog) {
		return nil, common.ErrorInvalidValue
	}

	x := append([]float64(nil), endog...)
	w := append([]float64(nil), weights...)
	sort.Sort(weightedPoints{x: x, w: w})

	if clip != nil {
		x, w = Clip(x, w, clip)
		if len(x) == 0 {
			return nil, common.ErrorInvalidValue
		}
	}

	if cut == 0 {
		cut = DefaultCut
	}
	if bwAdjust == 0 {
		bwAdjust = 1
	}

	return &KDEUnivariate{
		Weights:  w,
		gridSize: max(len(x), MinGridSize),
		bwAdjust: bwAdjust,
		cut:      cut,
		Endog:    x,
	}, nil
}

func (kde *KDEUnivariate) Kdensity() ([]model.Density, float64) {
	if kde.fitted {
		return kde.density, kde.bw
	}

	kernel := NewGaussianKernel()
	bw := NewNormalReference(kernel, kde.bwAdjust).Select(kde.Endog)
	kernel.SetH(bw)

	a := max(floats.Min(kde.Endog)-kde.cut*1.5*bw, 0)
	b := floats.Max(kde.Endog) + kde.cut*bw
	grid := linspace(a, b, kde.gridSize)

	matrix := make([][]float64, len(grid))
	for i := range grid {
		matrix[i] = make([]float64, len(kde.Endog))
		for j := range kde.Endog {
			matrix[i][j] = (kde.Endog[j] - grid[i]) / bw
		}
	}
	matrix = kernel.EvaluateMatrix(matrix)

	q := floats.Sum(kde.Weights)

	res := make([]model.Density, len(grid))
	for i := range grid {
		res[i] = model.Density{
			X:     grid[i],
			Value: floats.Dot(matrix[i], kde.Weights) / (q * bw),
		}
	}

	kde.density = res
	kde.bw = bw
	kde.grid = grid
	kde.fitted = true
	kde.kernel = kernel
	kde.kernel.SetWeights(kde.Weights)

	return res, bw
}

// Cdf integrates the density from zero up to every grid point.
func (kde *KDEUnivariate) Cdf() ([]model.Cdf, error) {
	if !kde.fitted {
		kde.Kdensity()
	}

	if len(kde.cdf) > 0 {
		return kde.cdf, nil
	}

	newGrid := append([]float64{0}, kde.grid...)

	f := func(x float64) float64 {
		return kde.kernel.Density(kde.Endog, x)
	}

	res := make([]model.Cdf, 0, len(kde.grid))
	var cumSum float64
	for i := 1; i < len(newGrid); i++ {
		cumSum += quad.Fixed(f, newGrid[i-1], newGrid[i], cdfQuadratureNodes, nil, 0)
		res = append(res, model.Cdf{
			X:     newGrid[i],
			Value: cumSum,
		})
	}

	kde.cdf = res
	return res, nil
}

// Quantile inverts the CDF by linear interpolation between grid points.
func (kde *KDEUnivariate) Quantile(p float64) (*model.QuantileValue, error) {
	if !(0 <= p && p <= 1) {
		return nil, common.ErrorInvalidValue
	}
	cdf, err := kde.Cdf()
	if err != nil {
		return nil, err
	}

	if len(cdf) == 0 {
		return nil, common.ErrorInvalidValue
	}
	if p <= cdf[0].Value {
		return &model.QuantileValue{Quantile: p, Value: cdf[0].X}, nil
	}

	for i := 1; i < len(cdf); i++ {
		if cdf[i].Value > p {
			lowerX, lowerP := cdf[i-1].X, cdf[i-1].Value
			upperX, upperP := cdf[i].X, cdf[i].Value
			return &model.QuantileValue{
				Quantile: p,
				Value:    lowerX + (upperX-lowerX)*(p-lowerP)/(upperP-lowerP),
			}, nil
		}
	}
	return &model.QuantileValue{Quantile: p, Value: cdf[len(cdf)-1].X}, nil
}
