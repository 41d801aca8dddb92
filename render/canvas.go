package render

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"time"

	"github.com/lxxca/covid-prevalence-estimate/common"
	"github.com/lxxca/covid-prevalence-estimate/model"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	preliminaryText = "PRELIMINARY"
	preliminarySize = 30
	watermarkSize   = 9
)

func newPlot(style Style, title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = style.TitleSize
	p.X.Label.Text = xLabel
	p.X.Label.TextStyle.Font.Size = style.LabelSize
	p.Y.Label.Text = yLabel
	p.Y.Label.TextStyle.Font.Size = style.LabelSize
	p.X.Tick.Label.Font.Size = style.TickSize
	p.Y.Tick.Label.Font.Size = style.TickSize
	p.Legend.TextStyle.Font.Size = style.LegendSize
	p.Legend.Top = true
	return p
}

// dateAxis formats the x axis as dates with ticks rotated by 45 degrees.
func dateAxis(p *plot.Plot, style Style) {
	p.X.Tick.Marker = plot.TimeTicks{Format: style.DateFormat}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
}

func unix(t time.Time) float64 {
	return float64(t.Unix())
}

func dateXYs(dates []time.Time, values []float64) plotter.XYs {
	xys := make(plotter.XYs, len(dates))
	for i, at := range dates {
		xys[i].X = unix(at)
		xys[i].Y = values[i]
	}
	return xys
}

func addLine(p *plot.Plot, xys plotter.XYs, c color.Color, width vg.Length, label string) (*plotter.Line, error) {
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = width
	p.Add(line)
	if label != "" {
		p.Legend.Add(label, line)
	}
	return line, nil
}

// addBand draws the median line of band and shades the area between its low and high bounds.
func addBand(p *plot.Plot, style Style, dates []time.Time, band *model.ConfidenceBand, label string) error {
	upper := dateXYs(dates, band.High)
	lower := dateXYs(dates, band.Low)
	outline := make(plotter.XYs, 0, len(upper)+len(lower))
	outline = append(outline, upper...)
	for i := len(lower) - 1; i >= 0; i-- {
		outline = append(outline, lower[i])
	}

	poly, err := plotter.NewPolygon(outline)
	if err != nil {
		return err
	}
	lineColor := plotutil.Color(0)
	poly.Color = withAlpha(lineColor, style.BandAlpha)
	poly.LineStyle.Width = 0
	p.Add(poly)

	if _, err := addLine(p, dateXYs(dates, band.Median), lineColor, style.LineWidth, label); err != nil {
		return err
	}
	p.Legend.Add(ciLabel(band), poly)
	return nil
}

func ciLabel(band *model.ConfidenceBand) string {
	return fmt.Sprintf("%gCI", band.Percentiles[2]-band.Percentiles[0])
}

// verticalLine draws a vertical segment at x between y0 and y1.
func verticalLine(p *plot.Plot, x, y0, y1 float64, c color.Color, width vg.Length, dashed bool, label string) error {
	line, err := addLine(p, plotter.XYs{{X: x, Y: y0}, {X: x, Y: y1}}, c, width, label)
	if err != nil {
		return err
	}
	if dashed {
		line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	}
	return nil
}

func drawWatermark(dc draw.Canvas, wm Watermark) {
	width := dc.Max.X - dc.Min.X
	height := dc.Max.Y - dc.Min.Y
	at := func(fx, fy float64) vg.Point {
		return vg.Point{X: dc.Min.X + vg.Length(fx)*width, Y: dc.Min.Y + vg.Length(fy)*height}
	}

	if wm.ShowWatermark && wm.Text != "" {
		dc.FillText(draw.TextStyle{
			Color:   watermarkGray,
			Font:    font.From(plot.DefaultFont, vg.Points(watermarkSize)),
			XAlign:  draw.XRight,
			YAlign:  draw.YBottom,
			Handler: plot.DefaultTextHandler,
		}, at(0.9, 0.02), wm.Text)
	}

	if wm.ShowPreliminary {
		dc.FillText(draw.TextStyle{
			Color:    watermarkGray,
			Font:     font.From(plot.DefaultFont, vg.Points(preliminarySize)),
			Rotation: math.Pi / 6,
			XAlign:   draw.XRight,
			YAlign:   draw.YBottom,
			Handler:  plot.DefaultTextHandler,
		}, at(0.75, 0.25), preliminaryText)
	}
}

// save draws p with its overlays into a PNG at path.
func save(p *plot.Plot, style Style, wm Watermark, path string) error {
	img := vgimg.New(style.Width, style.Height)
	dc := draw.New(img)
	p.Draw(dc)
	drawWatermark(dc, wm)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRender, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("%w: write %s: %v", common.ErrRender, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", common.ErrRender, path, err)
	}
	return nil
}
