// Package chart renders price history charts for the /chart command.
package chart

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/types"
	"github.com/DimonONE/TelegramCryptoAnalyst/lib/helpers"
)

var (
	lineColor = drawing.Color{R: 0, G: 122, B: 255, A: 255}
	fillColor = drawing.Color{R: 0, G: 122, B: 255, A: 25}
)

// RenderPriceChart draws a close-price line chart over the given candles
// and returns PNG bytes.
func RenderPriceChart(symbol string, candles []types.Candle) ([]byte, error) {
	if len(candles) < 2 {
		return nil, errors.New("chart: not enough data points")
	}

	times := make([]float64, 0, len(candles))
	closes := make([]float64, 0, len(candles))
	for _, c := range candles {
		times = append(times, chart.TimeToFloat64(c.Time))
		closes = append(closes, c.Close)
	}

	minPrice, maxPrice := minMax(closes)
	padding := (maxPrice - minPrice) * 0.1
	if padding == 0 {
		padding = maxPrice * 0.01
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s price (%s)", symbol, spanLabel(candles)),
		Width:  1200,
		Height: 500,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("02-Jan 15:04"),
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: minPrice - padding, Max: maxPrice + padding},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return helpers.FormatPriceUS(f, false)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name: symbol,
				Style: chart.Style{
					StrokeColor: lineColor,
					StrokeWidth: 2,
					FillColor:   fillColor,
				},
				XValues: times,
				YValues: closes,
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, errors.Wrap(err, "chart render failed")
	}
	return buf.Bytes(), nil
}

func spanLabel(candles []types.Candle) string {
	span := candles[len(candles)-1].Time.Sub(candles[0].Time)
	days := int(span.Hours() / 24)
	if days >= 2 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(span.Hours()))
}

func minMax(values []float64) (min, max float64) {
	min, max = values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
