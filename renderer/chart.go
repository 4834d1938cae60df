package renderer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/etnz/capgains"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	gainColor = drawing.ColorFromHex("16a34a") // green-600
	lossColor = drawing.ColorFromHex("dc2626") // red-600
)

// NetGainChart renders a PNG bar chart of the net gain or loss of each
// period. Returns raw PNG bytes.
func NetGainChart(results []*capgains.Result) ([]byte, error) {
	if len(results) == 0 {
		return nil, errors.New("no period to chart")
	}

	bars := make([]chart.Value, len(results))
	allZero := true
	for i, res := range results {
		net := res.Summary.NetGainLoss
		color := gainColor
		if net.IsNegative() {
			color = lossColor
		}
		if !net.IsZero() {
			allZero = false
		}
		bars[i] = chart.Value{
			Label: Label(res.Range),
			Value: net.InexactFloat64(),
			Style: chart.Style{
				FillColor:   color,
				StrokeColor: color,
				StrokeWidth: 1,
			},
		}
	}
	if allZero {
		return nil, errors.New("no realized gain or loss to chart")
	}

	currency := results[0].Summary.Currency
	graph := chart.BarChart{
		Title:  "Net Realized Gain/Loss",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		BarWidth:     40,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f %s", f, currency)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
