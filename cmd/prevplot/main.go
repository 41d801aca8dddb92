package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lxxca/covid-prevalence-estimate/config"
	"github.com/lxxca/covid-prevalence-estimate/metrics"
	"github.com/lxxca/covid-prevalence-estimate/model"
	"github.com/lxxca/covid-prevalence-estimate/render"
	"github.com/lxxca/covid-prevalence-estimate/report"
	"github.com/lxxca/covid-prevalence-estimate/trace"
	"github.com/lxxca/covid-prevalence-estimate/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	tracePath  string
	casesPath  string
	deathsPath string
	configFile string
	rootDir    string
	parallel   bool
	quantity   string
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

var errBatchFailed = errors.New("some outputs failed")

func main() {
	rootCmd := &cobra.Command{
		Use:          "prevplot",
		Short:        "diagnostic plots from a posterior trace",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&tracePath, "trace", "", "trace export (json)")
	_ = rootCmd.MarkPersistentFlagRequired("trace")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "write every plot and the prevalence bands",
		RunE:  runRender,
	}
	renderCmd.Flags().StringVar(&casesPath, "cases", "", "observed new cases (csv)")
	renderCmd.Flags().StringVar(&deathsPath, "deaths", "", "observed cumulative deaths (csv)")
	renderCmd.Flags().StringVar(&configFile, "config", "", "settings file (yaml)")
	renderCmd.Flags().StringVar(&rootDir, "root", "", "output root, overrides the settings file")
	renderCmd.Flags().BoolVar(&parallel, "parallel", false, "render plots concurrently")

	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "print a band in the terminal",
		RunE:  runPreview,
	}
	previewCmd.Flags().StringVar(&quantity, "quantity", metrics.PrevalenceName, "prevalence, lambda, cases or ein")

	maskCmd := &cobra.Command{
		Use:   "mask",
		Short: "count degenerate samples",
		RunE:  runMask,
	}

	rootCmd.AddCommand(renderCmd, previewCmd, maskCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadSeries(path string) (*model.TimeSeries, error) {
	if path == "" {
		return nil, nil
	}
	return trace.LoadSeries(path)
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := utils.WithLogger(cmd.Context(), zap.L())

	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return err
		}
	}
	if rootDir != "" {
		cfg.Root = rootDir
	}
	if parallel {
		cfg.Parallel = true
	}

	tr, err := trace.Load(tracePath)
	if err != nil {
		return err
	}
	cases, err := loadSeries(casesPath)
	if err != nil {
		return fmt.Errorf("cases: %w", err)
	}
	deaths, err := loadSeries(deathsPath)
	if err != nil {
		return fmt.Errorf("deaths: %w", err)
	}

	jobs, err := report.Plots(ctx, tr, cases, deaths, cfg)
	if err != nil {
		return err
	}
	runner := &report.Runner{Parallel: cfg.Parallel, Workers: cfg.Workers}
	res := runner.Run(ctx, jobs)

	fmt.Fprintln(cmd.OutOrStdout(), formatReport(res))
	if !res.OK() {
		return errBatchFailed
	}
	return nil
}

func formatReport(res *report.Report) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-12s %-6s %10s  %s", "output", "status", "time", "path")))
	b.WriteString("\n")
	for _, r := range res.Results {
		status, detail := okStyle.Render("ok    "), r.Path
		if r.Err != nil {
			status, detail = failStyle.Render("failed"), r.Err.Error()
		}
		fmt.Fprintf(&b, "%-12s %s %10s  %s\n", r.Name, status,
			dimStyle.Render(fmt.Sprintf("%10s", r.Duration.Round(time.Millisecond))), detail)
	}
	return strings.TrimRight(b.String(), "\n")
}

func previewSeries(ctx context.Context, tr *trace.Trace) (*metrics.Series, error) {
	switch quantity {
	case metrics.PrevalenceName:
		bands, err := metrics.Prevalence(ctx, tr)
		if err != nil {
			return nil, err
		}
		return bands.Total, nil
	case metrics.SpreadingRateName:
		return metrics.SpreadingRateBand(ctx, tr)
	case metrics.CasesName:
		return metrics.CaseBand(ctx, tr)
	case "ein", metrics.IntroductionsName:
		return metrics.IntroductionBand(ctx, tr)
	}
	return nil, fmt.Errorf("unknown quantity %q", quantity)
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := utils.WithLogger(cmd.Context(), zap.L())
	tr, err := trace.Load(tracePath)
	if err != nil {
		return err
	}
	series, err := previewSeries(ctx, tr)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), render.Preview(series))
	return nil
}

func runMask(cmd *cobra.Command, args []string) error {
	ctx := utils.WithLogger(cmd.Context(), zap.L())
	tr, err := trace.Load(tracePath)
	if err != nil {
		return err
	}
	mask, err := metrics.DegeneracyMask(ctx, tr)
	if err != nil {
		return err
	}

	degenerate := mask.Count()
	if mask.AllDegenerate {
		degenerate = mask.Len()
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %d\n", headerStyle.Render("samples:   "), mask.Len())
	fmt.Fprintf(out, "%s %d\n", headerStyle.Render("degenerate:"), degenerate)
	if mask.AllDegenerate {
		fmt.Fprintln(out, failStyle.Render("every sample is degenerate, bands use all of them"))
	}
	return nil
}
