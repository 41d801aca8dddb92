package render

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/lxxca/covid-prevalence-estimate/common"
	"github.com/lxxca/covid-prevalence-estimate/metrics"
	"github.com/lxxca/covid-prevalence-estimate/utils"
	"go.uber.org/zap"
)

var bandHeader = []string{"date", "series", "low", "median", "high"}

// WriteBands writes every series as "date,series,low,median,high" rows.
func WriteBands(ctx context.Context, out Output, suffix string, series ...*metrics.Series) (string, error) {
	path, err := out.Path(suffix)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrRender, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(bandHeader); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrRender, err)
	}
	format := func(v float64) string {
		return strconv.FormatFloat(v, 'g', 8, 64)
	}
	for _, s := range series {
		for i, at := range s.Dates {
			record := []string{
				at.Format("2006-01-02"),
				s.Name,
				format(s.Band.Low[i]),
				format(s.Band.Median[i]),
				format(s.Band.High[i]),
			}
			if err := w.Write(record); err != nil {
				return "", fmt.Errorf("%w: %v", common.ErrRender, err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrRender, err)
	}

	utils.GetLogger(ctx).Info("bands saved", zap.String("path", path), zap.Int("series", len(series)))
	return path, nil
}
