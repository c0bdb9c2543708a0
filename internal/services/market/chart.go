package market

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/foliolabs/folio/internal/models"
)

// RenderPriceChart renders an SVG line chart of closing prices. Fallback for
// when the oracle reply carries no usable SVG. Labels are plotted by index
// so intraday and daily series render the same way.
func RenderPriceChart(ticker string, points []models.PricePoint) (string, error) {
	if len(points) < 2 {
		return "", fmt.Errorf("need at least 2 data points, got %d", len(points))
	}

	xValues := make([]float64, len(points))
	yValues := make([]float64, len(points))
	for i, p := range points {
		xValues[i] = float64(i)
		yValues[i] = p.Close
	}

	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Label
	}

	series := chart.ContinuousSeries{
		Name: ticker,
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.0,
		},
		XValues: xValues,
		YValues: yValues,
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Price History", ticker),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					idx := int(f)
					if idx >= 0 && idx < len(labels) {
						return labels[idx]
					}
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{series},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.SVG, &buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.String(), nil
}
