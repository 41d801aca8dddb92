package kde

import (
	"math"
)

type Kernel interface {
	NormalReferenceConstant() float64
	Shape(x float64) float64
}

// GaussianKernel is a second order Gaussian kernel with optional per point weights.
type GaussianKernel struct {
	l2Norm                  float64
	kernelVar               float64
	order                   int
	normalReferenceConstant float64
	h                       float64
	weights                 []float64
}

func NewGaussianKernel() *GaussianKernel {
	return &GaussianKernel{
		l2Norm:    1.0 / (2.0 * math.Sqrt(math.Pi)),
		kernelVar: 1.0,
		order:     2,
		h:         1.0,
	}
}

func (k *GaussianKernel) SetH(h float64) {
	k.h = h
}

// SetWeights stores weights normalised to sum to one. All-zero weights become all-zero.
func (k *GaussianKernel) SetWeights(weights []float64) {
	sum := 0.0
	for _, v := range weights {
		sum += v
	}
	kernelWeights := make([]float64, len(weights))
	if sum != 0 {
		for i := range weights {
			kernelWeights[i] = weights[i] / sum
		}
	}
	k.weights = kernelWeights
}

func (k *GaussianKernel) Shape(x float64) float64 {
	return 0.3989422804014327 * math.Exp(-x*x/2.0)
}

func (k *GaussianKernel) EvaluateMatrix(matrix [][]float64) [][]float64 {
	result := make([][]float64, len(matrix))
	for i, row := range matrix {
		result[i] = make([]float64, len(row))
		for j, u := range row {
			result[i][j] = max(k.Shape(u), 0)
		}
	}
	return result
}

func (k *GaussianKernel) NormalReferenceConstant() float64 {
	nu := k.order
	if k.normalReferenceConstant == 0 {
		numerator := math.Pow(math.Pi, 0.5) * math.Pow(factorial(nu), 3) * k.l2Norm
		denom := 2.0 * float64(nu) * factorial(2*nu) * math.Pow(k.Moments(nu), 2)
		k.normalReferenceConstant = 2 * math.Pow(numerator/denom, 1.0/float64(2*nu+1))
	}
	return k.normalReferenceConstant
}

func (k *GaussianKernel) Moments(n int) float64 {
	switch n {
	case 1:
		return 0
	case 2:
		return k.kernelVar
	}
	return 1.0
}

// Density evaluates the kernel density of xs at x.
func (k *GaussianKernel) Density(xs []float64, x float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}

	h := k.h
	sum := 0.0
	if k.weights != nil {
		for i, xi := range xs {
			sum += k.Shape((xi-x)/h) * k.weights[i]
		}
		return sum / h
	}

	for _, xi := range xs {
		sum += k.Shape((xi - x) / h)
	}
	return sum / (h * float64(len(xs)))
}
