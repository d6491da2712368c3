package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/chart"
	"github.com/DimonONE/TelegramCryptoAnalyst/lib/helpers"
)

const chartCacheTTL = 5 * time.Minute

// CommandChart renders a price chart for the symbol and returns PNG bytes
// with a caption. Time ranges: "24h" (default, hourly candles) or "7d".
func CommandChart(ctx context.Context, feed PriceSource, symbol, timeRange string) ([]byte, string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	log.Debugf("processing command /chart with arguments: %s %s", symbol, timeRange)

	interval, limit := "1h", 24
	if timeRange == "7d" {
		interval, limit = "4h", 42
	}

	cacheKey := symbol + "|" + interval
	if item, found := cacheGet(cacheKey); found {
		log.Debugf("returning cached chart for %s", cacheKey)
		return item.ChartData, item.Caption, nil
	}

	candles, err := feed.Candles(ctx, symbol, interval, limit)
	if err != nil {
		return nil, "", errors.Wrapf(err, "command /chart %s", symbol)
	}

	chartData, err := chart.RenderPriceChart(symbol, candles)
	if err != nil {
		return nil, "", errors.Wrapf(err, "command /chart %s", symbol)
	}

	last := candles[len(candles)-1]
	caption := fmt.Sprintf("*%s* close: $%s",
		helpers.EscapeMarkdownV2(symbol),
		helpers.FormatPriceUS(last.Close, true),
	)

	cacheSet(cacheKey, chartData, caption, chartCacheTTL)
	return chartData, caption, nil
}
