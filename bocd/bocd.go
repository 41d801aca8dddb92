package bocd

import (
	"math"

	"github.com/lxxca/covid-prevalence-estimate/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// BocdOnlineChecker runs Bayesian online change point detection with a
// Gaussian likelihood of known variance and a Gaussian prior on the mean.
type BocdOnlineChecker struct {
	varX  float64 // known variance
	mean0 float64 // prior mean
	var0  float64 // prior variance

	hazard    float64
	threshold float64
	window    int

	datas           []model.TimeValue
	means           []float64
	invVariances    []float64 // 1 / Variance
	lastLogRunProbs []float64
	runLenLogProb   [][]float64
	runLenProb      [][]float64

	pMeans []float64 // prediction mean
	pVars  []float64 // prediction var

	changePoints []*model.ChangePoint
}

type CheckerOption func(*BocdOnlineChecker)

func WithHazard(hazard float64) CheckerOption {
	return func(b *BocdOnlineChecker) {
		b.hazard = hazard
	}
}

// WithThreshold sets the run length probability that confirms a change point.
func WithThreshold(threshold float64) CheckerOption {
	return func(b *BocdOnlineChecker) {
		b.threshold = threshold
	}
}

// WithObserveWindow sets how many steps back a change point may be confirmed.
func WithObserveWindow(steps int) CheckerOption {
	return func(b *BocdOnlineChecker) {
		b.window = steps
	}
}

func NewBocdOnlineChecker(prior model.PriorStatistics, opts ...CheckerOption) *BocdOnlineChecker {
	b := &BocdOnlineChecker{
		varX:      prior.Variance,
		mean0:     prior.Mean,
		var0:      prior.Variance,
		hazard:    defaultHazard,
		threshold: defaultChangePointThreshold,
		window:    defaultObserveWindow,

		datas:           []model.TimeValue{},
		means:           []float64{prior.Mean},
		invVariances:    []float64{1 / prior.Variance},
		runLenLogProb:   [][]float64{{0}},
		runLenProb:      [][]float64{{1}},
		lastLogRunProbs: []float64{0},

		pMeans: []float64{},
		pVars:  []float64{},

		changePoints: []*model.ChangePoint{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BocdOnlineChecker) LastTimeValue() (model.TimeValue, bool) {
	if len(b.datas) == 0 {
		return model.TimeValue{}, false
	}
	return b.datas[len(b.datas)-1], true
}

// AppendPoint feeds one observation and reports a newly confirmed change point.
func (b *BocdOnlineChecker) AppendPoint(timeValue model.TimeValue) (*model.ChangePoint, bool) {
	b.datas = append(b.datas, timeValue)

	t := len(b.datas)

	b.pMeans = append(b.pMeans, b.predictionMean(t))
	b.pVars = append(b.pVars, b.predictionVar(t))

	// density of x under every run length hypothesis
	logPreProbs := b.logOfPreProb(t, timeValue.Value)

	logGrowthProbs := b.calLogGrowthProbs(logPreProbs)
	logChangePointProb := b.calLogChangePointProb(logPreProbs)

	logRunProbs := append([]float64{logChangePointProb}, logGrowthProbs...)
	b.lastLogRunProbs = logRunProbs

	normalizeLogRunProbs := NormalizeData(logRunProbs)
	b.runLenLogProb = append(b.runLenLogProb, normalizeLogRunProbs)
	b.runLenProb = append(b.runLenProb, ListExp(normalizeLogRunProbs))

	b.updateGaussianParams(timeValue.Value)

	return b.checkChangePoints(t)
}

func (b *BocdOnlineChecker) checkChangePoints(t int) (*model.ChangePoint, bool) {
	probs := b.runLenProb[t]

	for j := 1; j < len(probs) && j <= b.window; j++ {
		if probs[j] < b.threshold {
			continue
		}
		loc := t - j
		if loc == 0 {
			break
		}
		current, previous := b.datas[loc], b.datas[loc-1]

		changePoint := &model.ChangePoint{
			TimeValue: current,
			Step:      loc,
		}
		if current.Value > previous.Value {
			changePoint.ChangePointType = model.IncreaseChangePoint
		} else {
			changePoint.ChangePointType = model.DecreaseChangePoint
		}

		if last, ok := b.LastChangePoint(); ok && last.Step == loc {
			break
		}
		b.changePoints = append(b.changePoints, changePoint)
		return changePoint, true
	}
	return nil, false
}

func (b *BocdOnlineChecker) updateGaussianParams(x float64) {
	newInvVariances := make([]float64, len(b.invVariances))
	for i := range b.invVariances {
		newInvVariances[i] = b.invVariances[i] + 1/b.varX
	}

	newMeans := make([]float64, len(b.means))
	for i := range b.means {
		newMeans[i] = (b.means[i]*b.invVariances[i] + x/b.varX) / newInvVariances[i]
	}

	b.invVariances = append([]float64{1 / b.var0}, newInvVariances...)
	b.means = append([]float64{b.mean0}, newMeans...)
}

func (b *BocdOnlineChecker) logh() float64 {
	return math.Log(b.hazard)
}

func (b *BocdOnlineChecker) log1mh() float64 {
	return math.Log(1 - b.hazard)
}

func (b *BocdOnlineChecker) calLogChangePointProb(logPreProbs []float64) float64 {
	data := make([]float64, len(logPreProbs))
	for i := range logPreProbs {
		data[i] = logPreProbs[i] + b.lastLogRunProbs[i] + b.logh()
	}
	return LogSumExp(data)
}

func (b *BocdOnlineChecker) calLogGrowthProbs(logPreProbs []float64) []float64 {
	logGrowthProbs := make([]float64, len(logPreProbs))
	for i := range logPreProbs {
		logGrowthProbs[i] = logPreProbs[i] + b.lastLogRunProbs[i] + b.log1mh()
	}
	return logGrowthProbs
}

// logOfPreProb evaluates the posterior predictive of x for each of the t run lengths.
func (b *BocdOnlineChecker) logOfPreProb(t int, x float64) []float64 {
	logProbs := make([]float64, t)
	variances := b.calVariances()

	for i := 0; i < t; i++ {
		normalDist := distuv.Normal{
			Mu:    b.means[i],
			Sigma: math.Sqrt(variances[i]),
		}
		logProbs[i] = normalDist.LogProb(x)
	}
	return logProbs
}

func (b *BocdOnlineChecker) calVariances() []float64 {
	res := make([]float64, len(b.invVariances))
	for i := range b.invVariances {
		res[i] = 1/b.invVariances[i] + b.varX
	}
	return res
}

func (b *BocdOnlineChecker) predictionMean(t int) float64 {
	return floats.Sum(ListMul(ListExp(b.runLenLogProb[t-1]), b.means))
}

func (b *BocdOnlineChecker) predictionVar(t int) float64 {
	return floats.Sum(ListMul(ListExp(b.runLenLogProb[t-1]), b.calVariances()))
}

func (b *BocdOnlineChecker) GetPredictionMeans() []float64 {
	return b.pMeans
}

func (b *BocdOnlineChecker) GetPredictionVariances() []float64 {
	return b.pVars
}

func (b *BocdOnlineChecker) Datas() []model.TimeValue {
	return b.datas
}

func (b *BocdOnlineChecker) DataSize() int {
	return len(b.datas)
}

func (b *BocdOnlineChecker) GetChangePoints() []*model.ChangePoint {
	return b.changePoints
}

func (b *BocdOnlineChecker) LastChangePoint() (*model.ChangePoint, bool) {
	if len(b.changePoints) > 0 {
		return b.changePoints[len(b.changePoints)-1], true
	}
	return nil, false
}
