package kde

const (
	// DefaultCut is how many bandwidths the grid extends past the data.
	DefaultCut = 3.0

	MinGridSize = 100

	// ClipZScore is the z-score used when outlier clipping is requested.
	ClipZScore = 3.0

	MinCalculatePointCnt = 2

	cdfQuadratureNodes = 50

	// minBandWidthFraction keeps the bandwidth positive when every point is identical.
	minBandWidthFraction = 1e-3
)

var (
	// CredibleQuantiles are read off the estimated distribution: lower bound, median, upper bound.
	CredibleQuantiles = []float64{0.025, 0.5, 0.975}
)
