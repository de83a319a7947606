package view

import (
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/analytics"
)

// Chart names accepted by RenderChart.
const (
	ChartByHerb = "by-herb"
	ChartVolume = "volume"
	ChartPurity = "purity"
)

var (
	colorPure        = drawing.ColorFromHex("10b981")
	colorAdulterated = drawing.ColorFromHex("ef4444")
	colorVolume      = drawing.ColorFromHex("34d399")
)

const (
	chartWidth  = 1024
	chartHeight = 400
	barWidth    = 48
	barSpacing  = 32
)

// RenderChart writes the named chart for data as PNG.
func RenderChart(w io.Writer, name string, data analytics.Analytics, loc *time.Location) error {
	switch name {
	case ChartByHerb:
		return renderByHerb(w, data.ByHerb)
	case ChartVolume:
		return renderVolume(w, data.VolumeByDate, loc)
	case ChartPurity:
		return renderPurity(w, data.Purity)
	}
	return fmt.Errorf("unknown chart %q", name)
}

func renderByHerb(w io.Writer, rates []analytics.HerbRate) error {
	bars := make([]chart.Value, 0, len(rates))
	for _, r := range rates {
		bars = append(bars, chart.Value{
			Label: r.Name,
			Value: r.Rate,
			Style: chart.Style{FillColor: colorAdulterated, StrokeColor: colorAdulterated},
		})
	}

	width := chartWidth
	if need := len(bars)*(barWidth+barSpacing) + 200; need > width {
		width = need
	}

	bc := chart.BarChart{
		Title:      "Adulteration Rate by Herb",
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      width,
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f%%", f)
				}
				return ""
			},
		},
		Bars: bars,
	}
	return bc.Render(chart.PNG, w)
}

func renderVolume(w io.Writer, volume []analytics.DateCount, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	xs := make([]time.Time, 0, len(volume))
	ys := make([]float64, 0, len(volume))
	maxCount := 0.0
	for _, dc := range volume {
		day, err := time.ParseInLocation(analytics.DateLayout, dc.Date, loc)
		if err != nil {
			return fmt.Errorf("volume date %q: %w", dc.Date, err)
		}
		xs = append(xs, day)
		ys = append(ys, float64(dc.Count))
		if float64(dc.Count) > maxCount {
			maxCount = float64(dc.Count)
		}
	}
	if len(xs) == 0 {
		return analytics.ErrNoData
	}
	// a lone point has a zero-width x range
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(24*time.Hour))
		ys = append(ys, ys[0])
	}

	graph := chart.Chart{
		Title:      "Scan Volume Over Time",
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      chartWidth,
		Height:     chartHeight,
		XAxis:      chart.XAxis{ValueFormatter: chart.TimeDateValueFormatter},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: maxCount + 1}},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Scans",
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: colorVolume, StrokeWidth: 2},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

func renderPurity(w io.Writer, p analytics.Purity) error {
	colors := map[string]drawing.Color{"Pure": colorPure, "Adulterated": colorAdulterated}
	values := make([]chart.Value, 0, 2)
	for _, b := range p.Buckets() {
		// empty slices have nothing to draw
		if b.Value == 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%d)", b.Name, b.Value),
			Value: float64(b.Value),
			Style: chart.Style{FillColor: colors[b.Name]},
		})
	}
	if len(values) == 0 {
		return analytics.ErrNoData
	}

	pc := chart.PieChart{
		Title:  "Purity Distribution",
		Width:  chartHeight,
		Height: chartHeight,
		Values: values,
	}
	return pc.Render(chart.PNG, w)
}
