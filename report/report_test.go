package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lxxca/covid-prevalence-estimate/config"
	"github.com/lxxca/covid-prevalence-estimate/model"
	"github.com/lxxca/covid-prevalence-estimate/trace/tracetest"
	"github.com/lxxca/covid-prevalence-estimate/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedContext() (context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return utils.WithLogger(context.Background(), zap.New(core)), logs
}

var errBroken = errors.New("broken")

func testJobs(ran *atomic.Int32) []Job {
	return []Job{
		{Name: "a", Run: func(context.Context) (string, error) {
			ran.Add(1)
			time.Sleep(time.Millisecond)
			return "a.png", nil
		}},
		{Name: "broken", Run: func(context.Context) (string, error) {
			ran.Add(1)
			return "", errBroken
		}},
		{Name: "panics", Run: func(context.Context) (string, error) {
			ran.Add(1)
			panic("boom")
		}},
		{Name: "b", Run: func(context.Context) (string, error) {
			ran.Add(1)
			return "b.png", nil
		}},
	}
}

func assertBatch(t *testing.T, report *Report) {
	t.Helper()
	require.Len(t, report.Results, 4)
	names := make([]string, len(report.Results))
	for i, r := range report.Results {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"a", "broken", "panics", "b"}, names)

	assert.Equal(t, "a.png", report.Results[0].Path)
	assert.ErrorIs(t, report.Results[1].Err, errBroken)
	assert.ErrorIs(t, report.Results[2].Err, ErrJobPanic)
	assert.Empty(t, report.Results[2].Path)
	assert.Equal(t, "b.png", report.Results[3].Path)

	assert.False(t, report.OK())
	assert.Len(t, report.Failed(), 2)
}

func TestRunnerSequential(t *testing.T) {
	ctx, logs := observedContext()
	var ran atomic.Int32

	report := (&Runner{}).Run(ctx, testJobs(&ran))
	assertBatch(t, report)
	assert.EqualValues(t, 4, ran.Load())

	assert.Equal(t, 1, logs.FilterMessage("job failed").Len())
	panics := logs.FilterMessage("job panic").All()
	require.Len(t, panics, 1)
	assert.Equal(t, zapcore.ErrorLevel, panics[0].Level)
	assert.Contains(t, panics[0].ContextMap()["stack"], "goroutine")
}

func TestRunnerParallel(t *testing.T) {
	ctx, _ := observedContext()
	var ran atomic.Int32

	report := (&Runner{Parallel: true, Workers: 2}).Run(ctx, testJobs(&ran))
	assertBatch(t, report)
	assert.EqualValues(t, 4, ran.Load())
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran atomic.Int32

	report := (&Runner{}).Run(ctx, testJobs(&ran))
	assert.EqualValues(t, 0, ran.Load())
	for _, r := range report.Results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestRunnerEmpty(t *testing.T) {
	report := (&Runner{Parallel: true}).Run(context.Background(), nil)
	assert.Empty(t, report.Results)
	assert.True(t, report.OK())
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Root = t.TempDir()
	cfg.Population = model.Population{Name: "Test Region"}
	cfg.ShowWatermark = true
	cfg.Watermark = "test"
	cfg.Now = "2020-04-10"
	return cfg
}

func TestOutput(t *testing.T) {
	tr := tracetest.Synthetic(tracetest.DefaultOptions())
	cfg := testConfig(t)

	out := Output(tr, cfg)
	assert.Equal(t, 100000.0, out.Population.Size)
	assert.True(t, out.Watermark.ShowWatermark)
	assert.Equal(t, "test", out.Watermark.Text)

	cfg.Population.Size = 42
	assert.Equal(t, 42.0, Output(tr, cfg).Population.Size)
}

func TestPlots(t *testing.T) {
	ctx, _ := observedContext()
	tr := tracetest.Synthetic(tracetest.DefaultOptions())
	cfg := testConfig(t)

	jobs, err := Plots(ctx, tr, tracetest.Cases(tr), tracetest.Deaths(tr), cfg)
	require.NoError(t, err)

	report := (&Runner{Parallel: true, Workers: 4}).Run(ctx, jobs)
	for _, r := range report.Results {
		require.NoError(t, r.Err, r.Name)
	}

	dir := filepath.Join(cfg.Root, "test_region")
	for _, suffix := range []string{
		"data.png", "fit.png", "lambda.png", "ein.png", "prev.png",
		"prev_bands.csv", "running_IFR.png", "IFR.png",
	} {
		_, err := os.Stat(filepath.Join(dir, "test_region_"+suffix))
		assert.NoError(t, err, suffix)
	}
}

func TestPlotsWithoutDeaths(t *testing.T) {
	ctx, logs := observedContext()
	tr := tracetest.Synthetic(tracetest.DefaultOptions())

	jobs, err := Plots(ctx, tr, tracetest.Cases(tr), nil, testConfig(t))
	require.NoError(t, err)
	assert.Len(t, jobs, 6)
	assert.Equal(t, 1, logs.FilterMessage("no deaths given, skipping IFR plots").Len())
}

func TestPlotsKeepsGoingWithoutCases(t *testing.T) {
	ctx, _ := observedContext()
	tr := tracetest.Synthetic(tracetest.DefaultOptions())

	jobs, err := Plots(ctx, tr, nil, nil, testConfig(t))
	require.NoError(t, err)

	report := (&Runner{}).Run(ctx, jobs)
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "data", failed[0].Name)
}

func TestPlotsBadNow(t *testing.T) {
	tr := tracetest.Synthetic(tracetest.DefaultOptions())
	cfg := testConfig(t)
	cfg.Now = "soon"

	_, err := Plots(context.Background(), tr, nil, nil, cfg)
	assert.Error(t, err)
}
