package summary

import (
	"context"

	"github.com/lxxca/covid-prevalence-estimate/model"
	"github.com/lxxca/covid-prevalence-estimate/utils"
	"go.uber.org/zap"
)

// ComputeMask flags every sample whose growth ratio (new entrants over current
// stock) is negative at any time step. NaN is not negative and never flags a
// sample; -Inf does.
//
// When every sample is flagged the mask is reset to keep all of them, so that
// percentiles are still defined. AllDegenerate records that this happened.
func ComputeMask(ctx context.Context, growthRatio *model.Ensemble) model.DegeneracyMask {
	logger := utils.GetLogger(ctx)

	samples, steps := growthRatio.Dims()
	mask := model.NewDegeneracyMask(samples)
	for s := 0; s < samples; s++ {
		negatives := 0
		for t := 0; t < steps; t++ {
			if growthRatio.At(s, t) < 0 {
				negatives++
			}
		}
		mask.Flags[s] = negatives > 0
	}

	flagged := mask.Count()
	if samples > 0 && flagged == samples {
		logger.Warn("all traces degenerate, keeping every sample", zap.Int("samples", samples))
		mask = model.NewDegeneracyMask(samples)
		mask.AllDegenerate = true
		return mask
	}

	if flagged > 0 {
		logger.Info("degenerate traces excluded", zap.Int("flagged", flagged), zap.Int("samples", samples))
	}
	return mask
}
