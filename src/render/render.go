// Package render draws analysis charts into PNG images with go-chart.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/iafilius/StakeCostModel/src/analysis"
)

// ErrNothingToDraw is returned for a chart without categories or samples.
var ErrNothingToDraw = errors.New("chart has no data to draw")

const missingLabel = "n/a"

// Render draws c. On failure a blank image of the requested size is returned together
// with the error.
func Render(c analysis.Chart, opts Options) (image.Image, error) {
	opts = opts.normalized()
	var (
		img image.Image
		err error
	)
	switch c.Kind {
	case analysis.KindBar:
		img, err = renderBars(c, opts)
	case analysis.KindLine:
		img, err = renderLines(c, opts)
	default:
		err = fmt.Errorf("unknown chart kind %d", c.Kind)
	}
	if err != nil {
		return blank(opts.Width, opts.Height), fmt.Errorf("%s: %w", c.Name, err)
	}
	if opts.Hints {
		img = drawHint(img, c.Hint)
	}
	return img, nil
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func padBottom(hints bool) int {
	p := 48
	if hints {
		p += 20
	}
	return p
}

// renderBars lays groups out side by side within each category. Undefined values are
// drawn as empty bars labelled n/a.
func renderBars(c analysis.Chart, o Options) (image.Image, error) {
	if len(c.Categories) == 0 || len(c.Bars) == 0 {
		return nil, ErrNothingToDraw
	}
	bars := make([]chart.Value, 0, len(c.Categories)*len(c.Bars))
	maxY := 0.0
	for i, cat := range c.Categories {
		for gi, g := range c.Bars {
			v := 0.0
			if i < len(g.Values) {
				v = g.Values[i]
			}
			missing := (i < len(g.Missing) && g.Missing[i]) || !finite(v)
			label := ""
			if gi == 0 {
				label = cat
			}
			col := hexColor(g.Color)
			st := chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1}
			if missing {
				v = 0
				if label == "" {
					label = missingLabel
				} else {
					label += " (" + missingLabel + ")"
				}
				st.FillColor = chart.ColorTransparent
			}
			if v > maxY {
				maxY = v
			}
			bars = append(bars, chart.Value{Label: label, Value: v, Style: st})
		}
	}
	yRange, yTicks := valueAxis(maxY)

	// share the plot width evenly, with a wider gap between categories
	slot := (o.Width - 120) / len(bars)
	if slot < 4 {
		slot = 4
	}
	barWidth := slot * 7 / 10
	if barWidth < 2 {
		barWidth = 2
	}
	ch := chart.BarChart{
		Title:      c.Title,
		Width:      o.Width,
		Height:     o.Height,
		BarWidth:   barWidth,
		BarSpacing: slot - barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: padBottom(o.Hints)}},
		XAxis:      chart.Style{FontSize: 8},
		YAxis:      chart.YAxis{Range: yRange, Ticks: yTicks},
		Bars:       bars,
	}
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	img = drawAxisLabels(img, c.XLabel, c.YLabel, o.Hints)
	if len(c.Bars) > 1 {
		entries := make([]legendEntry, len(c.Bars))
		for i, g := range c.Bars {
			entries[i] = legendEntry{Name: g.Name, Color: hexColor(g.Color)}
		}
		img = drawLegend(img, entries)
	}
	return img, nil
}

func renderLines(c analysis.Chart, o Options) (image.Image, error) {
	if len(c.X) < 2 || len(c.Lines) == 0 {
		return nil, ErrNothingToDraw
	}
	series := make([]chart.Series, 0, len(c.Lines))
	maxY := 0.0
	for _, l := range c.Lines {
		if len(l.Y) != len(c.X) {
			return nil, fmt.Errorf("line %q has %d values for %d samples", l.Name, len(l.Y), len(c.X))
		}
		for _, y := range l.Y {
			if finite(y) && y > maxY {
				maxY = y
			}
		}
		col := hexColor(l.Color)
		series = append(series, chart.ContinuousSeries{
			Name:    l.Name,
			XValues: c.X,
			YValues: l.Y,
			Style:   chart.Style{StrokeColor: col, StrokeWidth: 2},
		})
	}
	xTicks := niceTicks(c.X[0], c.X[len(c.X)-1], 6)
	yRange, yTicks := valueAxis(maxY)
	ch := chart.Chart{
		Title:      c.Title,
		Width:      o.Width,
		Height:     o.Height,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: padBottom(o.Hints)}},
		XAxis: chart.XAxis{
			Name:  c.XLabel,
			Range: &chart.ContinuousRange{Min: xTicks[0].Value, Max: xTicks[len(xTicks)-1].Value},
			Ticks: xTicks,
		},
		YAxis: chart.YAxis{
			Name:  c.YLabel,
			Range: yRange,
			Ticks: yTicks,
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}
