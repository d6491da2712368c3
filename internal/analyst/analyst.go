// Package analyst produces AI market commentary through the Gemini API,
// with a deterministic fallback when the API is unavailable.
package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/types"
)

const model = "gemini-2.5-flash"

// Sentiment is the analyst's market read.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// Analysis is a structured AI assessment of one symbol.
type Analysis struct {
	Summary        string    `json:"summary"`
	Sentiment      Sentiment `json:"sentiment"`
	KeyPoints      []string  `json:"keyPoints"`
	Recommendation string    `json:"recommendation"`
}

// Analyst wraps the Gemini client. A nil client (no API key configured)
// degrades every call to the fallback analysis.
type Analyst struct {
	client *genai.Client
}

// New creates an analyst. An empty apiKey disables the API and keeps only
// the fallback path, which is useful for tests and keyless deployments.
func New(ctx context.Context, apiKey string) (*Analyst, error) {
	if apiKey == "" {
		return &Analyst{}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create gemini client")
	}
	return &Analyst{client: client}, nil
}

// AnalyzeSymbol asks the model for a structured assessment of the snapshot.
// API failures fall back to a heuristic derived from the 24h change.
func (a *Analyst) AnalyzeSymbol(ctx context.Context, symbol string, snapshot types.PriceSnapshot) Analysis {
	if a.client == nil {
		return fallbackAnalysis(symbol, snapshot)
	}

	prompt := fmt.Sprintf(`You are an expert cryptocurrency analyst. Analyze %s based on this data:

Current Price: $%.8g
24h Change: %+.2f%%
24h Volume: %.2f
24h High: $%.8g
24h Low: $%.8g

Provide a concise analysis with a 2-3 sentence summary, a sentiment, 3-4 key points, and a clear action recommendation (buy/hold/sell/wait) with reasoning. Keep it professional, data-driven, and actionable. Focus on price action, volume, and momentum.`,
		symbol, snapshot.Price, snapshot.ChangePercent24h, snapshot.Volume24h, snapshot.High24h, snapshot.Low24h)

	resp, err := a.client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"summary":        {Type: genai.TypeString},
				"sentiment":      {Type: genai.TypeString, Enum: []string{"bullish", "bearish", "neutral"}},
				"keyPoints":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"recommendation": {Type: genai.TypeString},
			},
			Required: []string{"summary", "sentiment", "keyPoints", "recommendation"},
		},
	})
	if err != nil {
		log.Errorf("gemini analysis for %s failed: %v", symbol, err)
		return fallbackAnalysis(symbol, snapshot)
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(resp.Text()), &analysis); err != nil || analysis.Summary == "" {
		log.Errorf("could not parse gemini response for %s: %v", symbol, err)
		return fallbackAnalysis(symbol, snapshot)
	}
	return analysis
}

// PredictTrend asks for a short free-text 24-48h outlook.
func (a *Analyst) PredictTrend(ctx context.Context, symbol string, snapshot types.PriceSnapshot) (string, error) {
	if a.client == nil {
		return "", errors.New("analyst: gemini api key not configured")
	}

	prompt := fmt.Sprintf(`Based on %s current data:
- Price: $%.8g
- 24h: %+.2f%%
- Volume: %.2f

Provide a short-term trend prediction (next 24-48 hours) in 2-3 sentences. Consider current momentum, volume trends and recent price action. Be specific but acknowledge uncertainty.`,
		symbol, snapshot.Price, snapshot.ChangePercent24h, snapshot.Volume24h)

	resp, err := a.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", errors.Wrapf(err, "trend prediction for %s failed", symbol)
	}
	return resp.Text(), nil
}

// CompareCoins asks for a brief relative comparison of several snapshots.
func (a *Analyst) CompareCoins(ctx context.Context, snapshots map[string]types.PriceSnapshot) (string, error) {
	if a.client == nil {
		return "", errors.New("analyst: gemini api key not configured")
	}

	var sb strings.Builder
	for symbol, snap := range snapshots {
		fmt.Fprintf(&sb, "%s: $%.8g (%+.2f%%)\n", symbol, snap.Price, snap.ChangePercent24h)
	}

	prompt := fmt.Sprintf(`Compare these cryptocurrencies and provide insights:

%s
Give a brief comparison (3-4 sentences) highlighting which coin shows strongest momentum, relative performance differences, and which might be better positioned short-term. Keep it concise and actionable.`, sb.String())

	resp, err := a.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", errors.Wrap(err, "coin comparison failed")
	}
	return resp.Text(), nil
}

// fallbackAnalysis derives a plain-arithmetic assessment from the snapshot
// when the model is unreachable.
func fallbackAnalysis(symbol string, snapshot types.PriceSnapshot) Analysis {
	sentiment := SentimentNeutral
	switch {
	case snapshot.ChangePercent24h > 2:
		sentiment = SentimentBullish
	case snapshot.ChangePercent24h < -2:
		sentiment = SentimentBearish
	}

	direction := "moved sideways"
	if snapshot.ChangePercent24h > 0 {
		direction = "gained"
	} else if snapshot.ChangePercent24h < 0 {
		direction = "declined"
	}

	spread := snapshot.High24h - snapshot.Low24h
	keyPoints := []string{
		fmt.Sprintf("%s has %s %.2f%% over the last 24 hours", symbol, direction, abs(snapshot.ChangePercent24h)),
		fmt.Sprintf("24h range: $%.8g - $%.8g (spread %.8g)", snapshot.Low24h, snapshot.High24h, spread),
		fmt.Sprintf("24h volume: %.2f", snapshot.Volume24h),
	}

	return Analysis{
		Summary: fmt.Sprintf("%s is trading at $%.8g, having %s %.2f%% in the last 24 hours. "+
			"AI commentary is temporarily unavailable; this is a data-only view.",
			symbol, snapshot.Price, direction, abs(snapshot.ChangePercent24h)),
		Sentiment:      sentiment,
		KeyPoints:      keyPoints,
		Recommendation: "Wait for AI analysis to come back online before acting; the figures above are raw market data.",
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
