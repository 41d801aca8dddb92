package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/lxxca/covid-prevalence-estimate/common"
	"github.com/lxxca/covid-prevalence-estimate/model"
	"github.com/lxxca/covid-prevalence-estimate/summary"
	"github.com/lxxca/covid-prevalence-estimate/trace"
	"github.com/lxxca/covid-prevalence-estimate/utils"
	"go.uber.org/zap"
)

// Series names, also used as CSV labels.
const (
	CasesName         = "cases"
	SpreadingRateName = "lambda"
	IntroductionsName = "introductions"
	InfectiousName    = "infectious"
	PrevalenceName    = "prevalence"
	AsymptomaticName  = "asymptomatic"
	SymptomaticName   = "symptomatic"
	AttackRateName    = "attack_rate"
	RunningIFRName    = "running_ifr"
)

// simulation returns the first of names present in the trace over the simulation range.
func simulation(tr *trace.Trace, names ...string) (*model.Ensemble, error) {
	var err error
	for _, name := range names {
		var e *model.Ensemble
		e, _, err = tr.SimulationEnsemble(name)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, common.ErrMissingVariable) {
			return nil, err
		}
	}
	return nil, err
}

func unfiltered(ctx context.Context, tr *trace.Trace, name string, variables ...string) (*Series, error) {
	logger := utils.GetLogger(ctx)

	e, err := simulation(tr, variables...)
	if err != nil {
		return nil, err
	}
	band, err := summary.Summarize(e, model.DegeneracyMask{})
	if err != nil {
		logger.Error("summarize failed", zap.String("series", name), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return NewSeries(name, tr.SimDates(), band)
}

// caseVariables are tried in order; older fits only export detections.
var caseVariables = []string{trace.NewCases, trace.NewDetections}

// CaseBand summarizes the simulated new cases.
func CaseBand(ctx context.Context, tr *trace.Trace) (*Series, error) {
	return unfiltered(ctx, tr, CasesName, caseVariables...)
}

// CaseDraws returns the raw simulated new case trajectories.
func CaseDraws(tr *trace.Trace) (*model.Ensemble, error) {
	return simulation(tr, caseVariables...)
}

func SpreadingRateBand(ctx context.Context, tr *trace.Trace) (*Series, error) {
	return unfiltered(ctx, tr, SpreadingRateName, trace.SpreadingRate)
}

func IntroductionBand(ctx context.Context, tr *trace.Trace) (*Series, error) {
	return unfiltered(ctx, tr, IntroductionsName, trace.Introductions)
}
