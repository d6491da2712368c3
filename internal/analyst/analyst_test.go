package analyst

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/types"
)

func TestFallbackSentimentFollowsChange(t *testing.T) {
	cases := []struct {
		name string
		pct  float64
		want Sentiment
	}{
		{"strong gain", 5.1, SentimentBullish},
		{"just above threshold", 2.01, SentimentBullish},
		{"flat", 0.5, SentimentNeutral},
		{"mild loss", -1.9, SentimentNeutral},
		{"strong loss", -6.3, SentimentBearish},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := fallbackAnalysis("BTC", types.PriceSnapshot{Price: 50000, ChangePercent24h: tc.pct})
			assert.Equal(t, tc.want, got.Sentiment)
			assert.NotEmpty(t, got.Summary)
			assert.NotEmpty(t, got.KeyPoints)
			assert.NotEmpty(t, got.Recommendation)
		})
	}
}

func TestKeylessAnalystUsesFallback(t *testing.T) {
	a, err := New(context.Background(), "")
	require.NoError(t, err)

	analysis := a.AnalyzeSymbol(context.Background(), "ETH", types.PriceSnapshot{Price: 3000, ChangePercent24h: 3})
	assert.Equal(t, SentimentBullish, analysis.Sentiment)

	_, err = a.PredictTrend(context.Background(), "ETH", types.PriceSnapshot{})
	assert.Error(t, err, "free-text helpers have no fallback")

	_, err = a.CompareCoins(context.Background(), nil)
	assert.Error(t, err)
}
