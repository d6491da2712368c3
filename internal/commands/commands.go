// Package commands builds the bot's reply texts. Each command takes its
// collaborators as arguments and returns MarkdownV2, so the telegram layer
// stays a thin router and everything here is testable with fakes.
package commands

import (
	"context"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/analyst"
	"github.com/DimonONE/TelegramCryptoAnalyst/internal/types"
)

// PriceSource is the market data surface the command layer needs.
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) (types.PriceSnapshot, error)
	GetPrices(ctx context.Context, symbols []string) (map[string]types.PriceSnapshot, error)
	TopGainers(ctx context.Context, limit int) ([]types.TopCoin, error)
	TopLosers(ctx context.Context, limit int) ([]types.TopCoin, error)
	Candles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error)
}

// Analyst produces AI commentary for the analyze command.
type Analyst interface {
	AnalyzeSymbol(ctx context.Context, symbol string, snapshot types.PriceSnapshot) analyst.Analysis
}
