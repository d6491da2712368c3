package chart

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/types"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G'}

func TestRenderPriceChart(t *testing.T) {
	start := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	var candles []types.Candle
	for i := 0; i < 48; i++ {
		price := 50000 + float64(i%7)*120
		candles = append(candles, types.Candle{
			Time:  start.Add(time.Duration(i) * time.Hour),
			Open:  price,
			High:  price + 50,
			Low:   price - 50,
			Close: price + 10,
		})
	}

	png, err := RenderPriceChart("BTC", candles)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngHeader), "output is a PNG")
	assert.Greater(t, len(png), 1000)
}

func TestRenderPriceChartRejectsTooFewPoints(t *testing.T) {
	_, err := RenderPriceChart("BTC", []types.Candle{{Close: 1}})
	assert.Error(t, err)
}

func TestRenderPriceChartFlatSeries(t *testing.T) {
	start := time.Now()
	var candles []types.Candle
	for i := 0; i < 10; i++ {
		candles = append(candles, types.Candle{Time: start.Add(time.Duration(i) * time.Hour), Close: 100})
	}

	png, err := RenderPriceChart("USDC", candles)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}
