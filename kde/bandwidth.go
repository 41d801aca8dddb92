package kde

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// iqrToSigma is the interquartile range of a unit normal.
const iqrToSigma = 1.349

// NormalReference selects the rule of thumb bandwidth
// C * min(sd, IQR/1.349) * n^(-1/5), scaled by adjust.
type NormalReference struct {
	kernel Kernel
	adjust float64
}

func NewNormalReference(kernel Kernel, adjust float64) *NormalReference {
	if kernel == nil {
		kernel = NewGaussianKernel()
	}
	if !(adjust > 0) {
		adjust = 1
	}
	return &NormalReference{kernel: kernel, adjust: adjust}
}

// Select expects sorted ascending, non-empty input. Identical points have no
// spread; they get a small bandwidth relative to their magnitude instead.
func (r *NormalReference) Select(sorted []float64) float64 {
	n := len(sorted)
	bw := r.kernel.NormalReferenceConstant() * robustScale(sorted) * math.Pow(float64(n), -0.2) * r.adjust
	if bw > 0 {
		return bw
	}
	return minBandWidthFraction * math.Max(math.Abs(sorted[n-1]), 1) * r.adjust
}

// robustScale is the smaller of the standard deviation and the normalised
// IQR, falling back to the standard deviation when the IQR is zero.
func robustScale(sorted []float64) float64 {
	sd := stat.StdDev(sorted, nil)
	spread := stat.Quantile(0.75, stat.Empirical, sorted, nil) - stat.Quantile(0.25, stat.Empirical, sorted, nil)
	if spread <= 0 {
		return sd
	}
	return math.Min(sd, spread/iqrToSigma)
}
