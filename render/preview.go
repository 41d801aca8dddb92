package render

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/lxxca/covid-prevalence-estimate/metrics"
)

const (
	previewHeight = 12
	previewWidth  = 72
)

// Preview renders the median of a series as a terminal line chart, with the
// band bounds as lighter lines.
func Preview(series *metrics.Series) string {
	if series.Len() == 0 {
		return ""
	}
	band := series.Band
	caption := fmt.Sprintf("%s median and %gCI, %s to %s", series.Name,
		band.Percentiles[2]-band.Percentiles[0],
		series.Dates[0].Format("2006-01-02"), series.Dates[series.Len()-1].Format("2006-01-02"))

	return asciigraph.PlotMany([][]float64{band.Low, band.Median, band.High},
		asciigraph.Height(previewHeight),
		asciigraph.Width(previewWidth),
		asciigraph.SeriesColors(asciigraph.Gray, asciigraph.Blue, asciigraph.Gray),
		asciigraph.Caption(caption),
	)
}
