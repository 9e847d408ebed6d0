package chart

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/vitalwatch/vitalwatch/internal/vitals"
)

// ErrNoSeries means no (device, tier) series for the metric had at least
// one plottable week.
var ErrNoSeries = errors.New("chart: no plottable series")

const (
	chartWidth  = 900
	chartHeight = 500
)

// tierColors assigns each tier its line color across all charts.
var tierColors = map[vitals.Tier]drawing.Color{
	vitals.TierGood: chart.ColorGreen,
	vitals.TierNI:   chart.ColorOrange,
	vitals.TierPoor: chart.ColorRed,
}

// tierLabels are the human names used in legends and messages.
var tierLabels = map[vitals.Tier]string{
	vitals.TierGood: "Good",
	vitals.TierNI:   "Needs Improvement",
	vitals.TierPoor: "Poor",
}

// TierLabel returns the display name for a tier.
func TierLabel(t vitals.Tier) string { return tierLabels[t] }

// SeriesPoints extracts the weekly percentage series for one
// (metric, device, tier) from canonical-ordered rows. Weeks with a zero
// total are omitted rather than plotted as 0%.
func SeriesPoints(rows []vitals.Aggregate, m vitals.Metric, d vitals.Device, t vitals.Tier) (xs []time.Time, ys []float64) {
	for _, r := range rows {
		if r.Metric != m || r.Device != d {
			continue
		}
		share, ok := r.TierShare(t)
		if !ok {
			continue
		}
		xs = append(xs, r.WeekStart)
		ys = append(ys, share*100)
	}
	return xs, ys
}

// Render draws the trend chart for one metric from the merged history
// rows and returns the encoded PNG. Returns ErrNoSeries when the metric
// has no week with observed data on any device.
func Render(m vitals.Metric, rows []vitals.Aggregate) ([]byte, error) {
	var series []chart.Series
	for _, d := range vitals.Devices {
		for _, t := range []vitals.Tier{vitals.TierGood, vitals.TierNI, vitals.TierPoor} {
			xs, ys := SeriesPoints(rows, m, d, t)
			if len(xs) == 0 {
				continue
			}
			// go-chart cannot render a single-point time series; pad it
			// with a second x one hour later at the same value.
			if len(xs) == 1 {
				xs = append(xs, xs[0].Add(time.Hour))
				ys = append(ys, ys[0])
			}

			style := chart.Style{StrokeColor: tierColors[t], StrokeWidth: 2}
			if d == vitals.DeviceDesktop {
				style.StrokeDashArray = []float64{5, 3}
			}
			series = append(series, chart.TimeSeries{
				Name:    fmt.Sprintf("%s %s", d, tierLabels[t]),
				XValues: xs,
				YValues: ys,
				Style:   style,
			})
		}
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: metric %s", ErrNoSeries, m)
	}

	ch := chart.Chart{
		Title:  fmt.Sprintf("%s weekly trend (%% of observed pages)", m),
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 16, Left: 16, Right: 16, Bottom: 32},
		},
		YAxis: chart.YAxis{
			Name:  "% of pages",
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart: render %s: %w", m, err)
	}
	return buf.Bytes(), nil
}
