package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lxxca/covid-prevalence-estimate/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrJobPanic = errors.New("job panicked")

// Job produces one output file.
type Job struct {
	Name string
	Run  func(ctx context.Context) (path string, err error)
}

type Result struct {
	Name     string
	Path     string
	Err      error
	Duration time.Duration
}

type Report struct {
	Results []Result
}

func (r *Report) Failed() []Result {
	var res []Result
	for _, result := range r.Results {
		if result.Err != nil {
			res = append(res, result)
		}
	}
	return res
}

func (r *Report) OK() bool {
	return len(r.Failed()) == 0
}

// Runner runs every job of a batch. A failing job never stops the others.
type Runner struct {
	Parallel bool
	Workers  int
}

// Run returns one result per job, in job order.
func (r *Runner) Run(ctx context.Context, jobs []Job) *Report {
	logger := utils.GetLogger(ctx)
	results := make([]Result, len(jobs))

	if !r.Parallel || len(jobs) < 2 {
		for i, job := range jobs {
			results[i] = runJob(ctx, job)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(r.Workers, 1))
		for i, job := range jobs {
			i, job := i, job
			g.Go(func() error {
				results[i] = runJob(gctx, job)
				return nil
			})
		}
		_ = g.Wait()
	}

	report := &Report{Results: results}
	logger.Info("batch finished", zap.Int("jobs", len(jobs)), zap.Int("failed", len(report.Failed())))
	return report
}

func runJob(ctx context.Context, job Job) (res Result) {
	logger := utils.GetLogger(ctx).With(zap.String("job", job.Name))
	start := time.Now()
	res.Name = job.Name

	defer func() {
		if p := recover(); p != nil {
			logger.Error("job panic", zap.Any("panic", p), zap.String("stack", utils.GetPanicInfo()))
			res.Path = ""
			res.Err = fmt.Errorf("%w: %v", ErrJobPanic, p)
		}
		res.Duration = time.Since(start)
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	res.Path, res.Err = job.Run(ctx)
	if res.Err != nil {
		logger.Error("job failed", zap.Error(res.Err))
	}
	return res
}
