package render

import (
	"image/color"

	"gonum.org/v1/plot/vg"
)

// Style carries every presentation setting of one figure. Each plot call
// takes its own Style; nothing is shared between figures.
type Style struct {
	Width  vg.Length
	Height vg.Length

	TitleSize  vg.Length
	LabelSize  vg.Length
	TickSize   vg.Length
	LegendSize vg.Length

	LineWidth   vg.Length
	SampleAlpha uint8
	BandAlpha   uint8

	DateFormat string
}

// DefaultStyle mirrors the renderer defaults: 10pt text on a 6.4x4.8in figure.
func DefaultStyle() Style {
	return Style{
		Width:       6.4 * vg.Inch,
		Height:      4.8 * vg.Inch,
		TitleSize:   vg.Points(12),
		LabelSize:   vg.Points(10),
		TickSize:    vg.Points(10),
		LegendSize:  vg.Points(10),
		LineWidth:   vg.Points(1.5),
		SampleAlpha: 77,
		BandAlpha:   26,
		DateFormat:  "2006-01-02",
	}
}

// PrevalenceStyle is the larger type used for the published prevalence figure.
func PrevalenceStyle() Style {
	const small, medium = 14, 16

	s := DefaultStyle()
	s.Width = 8 * vg.Inch
	s.Height = 6 * vg.Inch
	s.TitleSize = vg.Points(small)
	s.LabelSize = vg.Points(medium)
	s.TickSize = vg.Points(small)
	s.LegendSize = vg.Points(small)
	return s
}

// Watermark controls the text overlays of a figure.
type Watermark struct {
	ShowPreliminary bool
	ShowWatermark   bool
	Text            string
}

var (
	watermarkGray = color.NRGBA{R: 128, G: 128, B: 128, A: 128}
	dataBlue      = color.NRGBA{B: 255, A: 255}
	latestRed     = color.NRGBA{R: 255, A: 255}
)

func withAlpha(c color.Color, alpha uint8) color.Color {
	nrgba := color.NRGBAModel.Convert(c).(color.NRGBA)
	nrgba.A = alpha
	return nrgba
}
